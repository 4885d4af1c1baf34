package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFavoriteQueryOffset(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
		want     int
	}{
		{name: "first page", page: 1, pageSize: 12, want: 0},
		{name: "second page", page: 2, pageSize: 12, want: 12},
		{name: "zero page", page: 0, pageSize: 12, want: 0},
		{name: "zero page size", page: 3, pageSize: 0, want: 0},
		{name: "largest page saturates", page: math.MaxInt, pageSize: 2, want: math.MaxInt},
		{name: "just past the limit saturates", page: math.MaxInt/100 + 2, pageSize: 100, want: math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FavoriteQuery{Page: tt.page, PageSize: tt.pageSize}
			assert.Equal(t, tt.want, q.Offset())
		})
	}
}

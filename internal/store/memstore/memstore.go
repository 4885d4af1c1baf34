// Package memstore keeps users, sessions and favorites in process memory.
// It mirrors the postgres repositories, including their uniqueness and
// ordering rules, and is used for local runs and handler tests.
package memstore

import (
	"sync"

	"github.com/newshub/apiserver/types"
)

// DB is a mutex-guarded in-memory database.
type DB struct {
	mu        sync.RWMutex
	users     map[string]types.User
	sessions  map[string]types.Session
	favorites map[string]types.Favorite
}

func New() *DB {
	return &DB{
		users:     make(map[string]types.User),
		sessions:  make(map[string]types.Session),
		favorites: make(map[string]types.Favorite),
	}
}

func (db *DB) Users() *UserRepository {
	return &UserRepository{db: db}
}

func (db *DB) Sessions() *SessionRepository {
	return &SessionRepository{db: db}
}

func (db *DB) Favorites() *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newshub/apiserver/internal/apperr"
	"github.com/newshub/apiserver/internal/services/mocks"
	"github.com/newshub/apiserver/internal/store"
	"github.com/newshub/apiserver/types"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionRepository

	service *AuthService
	now     time.Time
	ctx     context.Context
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserRepository(s.ctrl)
	s.sessions = mocks.NewMockSessionRepository(s.ctrl)

	userService := NewUserService(s.users, nil)
	userService.cost = bcrypt.MinCost

	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.service = NewAuthService(userService, s.sessions, 7*24*time.Hour, nil)
	s.service.now = func() time.Time { return s.now }
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) TestLogin_CreatesSession() {
	hashed, err := bcrypt.GenerateFromPassword([]byte("Str0ng!Pass"), bcrypt.MinCost)
	s.Require().NoError(err)

	s.users.EXPECT().GetByEmail(gomock.Any(), "ann@x.com").
		Return(types.User{ID: "user-1", Email: "ann@x.com", PasswordHash: string(hashed)}, nil)
	s.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, session types.Session) error {
			s.Equal("user-1", session.UserID)
			s.Equal(s.now.Add(7*24*time.Hour), session.ExpiresAt)
			s.Len(session.Token, 43)
			return nil
		})

	user, session, err := s.service.Login(s.ctx, "ann@x.com", "Str0ng!Pass")
	s.Require().NoError(err)
	s.Equal("user-1", user.ID)
	s.NotEmpty(session.Token)
}

func (s *AuthServiceTestSuite) TestLogin_InvalidCredentialsCreatesNoSession() {
	s.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(types.User{}, store.ErrNotFound)

	_, _, err := s.service.Login(s.ctx, "ghost@x.com", "Str0ng!Pass")
	s.True(apperr.IsKind(err, apperr.KindInvalidCredentials))
}

func (s *AuthServiceTestSuite) TestAuthenticate_RenewsSession() {
	s.sessions.EXPECT().Get(gomock.Any(), "tok").
		Return(types.Session{Token: "tok", UserID: "user-1", ExpiresAt: s.now.Add(time.Hour)}, nil)
	s.users.EXPECT().GetByID(gomock.Any(), "user-1").
		Return(types.User{ID: "user-1", Name: "Ann", Email: "ann@x.com", PasswordHash: "secret"}, nil)
	s.sessions.EXPECT().Touch(gomock.Any(), "tok", s.now.Add(7*24*time.Hour)).Return(nil)

	auth, err := s.service.Authenticate(s.ctx, "tok")
	s.Require().NoError(err)
	s.Equal(types.AuthContext{UserID: "user-1", Name: "Ann", Email: "ann@x.com"}, auth)
}

func (s *AuthServiceTestSuite) TestAuthenticate_MissingToken() {
	_, err := s.service.Authenticate(s.ctx, "")
	s.True(apperr.IsKind(err, apperr.KindUnauthorized))
}

func (s *AuthServiceTestSuite) TestAuthenticate_UnknownSession() {
	s.sessions.EXPECT().Get(gomock.Any(), "tok").Return(types.Session{}, store.ErrNotFound)

	_, err := s.service.Authenticate(s.ctx, "tok")
	s.True(apperr.IsKind(err, apperr.KindUnauthorized))
}

func (s *AuthServiceTestSuite) TestAuthenticate_ExpiredSessionDeleted() {
	s.sessions.EXPECT().Get(gomock.Any(), "tok").
		Return(types.Session{Token: "tok", UserID: "user-1", ExpiresAt: s.now}, nil)
	s.sessions.EXPECT().Delete(gomock.Any(), "tok").Return(nil)

	_, err := s.service.Authenticate(s.ctx, "tok")
	s.True(apperr.IsKind(err, apperr.KindUnauthorized))
}

func (s *AuthServiceTestSuite) TestAuthenticate_VanishedUserPurgesSession() {
	s.sessions.EXPECT().Get(gomock.Any(), "tok").
		Return(types.Session{Token: "tok", UserID: "user-gone", ExpiresAt: s.now.Add(time.Hour)}, nil)
	s.users.EXPECT().GetByID(gomock.Any(), "user-gone").Return(types.User{}, store.ErrNotFound)
	s.sessions.EXPECT().Delete(gomock.Any(), "tok").Return(nil)

	_, err := s.service.Authenticate(s.ctx, "tok")
	s.True(apperr.IsKind(err, apperr.KindUnauthorized))
}

func (s *AuthServiceTestSuite) TestAuthenticate_StoreFailureIsInternal() {
	s.sessions.EXPECT().Get(gomock.Any(), "tok").Return(types.Session{}, errors.New("db down"))

	_, err := s.service.Authenticate(s.ctx, "tok")
	s.True(apperr.IsKind(err, apperr.KindInternal))
}

func (s *AuthServiceTestSuite) TestLogout_Idempotent() {
	s.sessions.EXPECT().Delete(gomock.Any(), "tok").Return(nil).Times(2)

	s.NoError(s.service.Logout(s.ctx, "tok"))
	s.NoError(s.service.Logout(s.ctx, "tok"))
	s.NoError(s.service.Logout(s.ctx, ""))
}

func (s *AuthServiceTestSuite) TestPruneSessions() {
	s.sessions.EXPECT().DeleteExpired(gomock.Any()).Return(int64(3), nil)

	n, err := s.service.PruneSessions(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(3, n)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

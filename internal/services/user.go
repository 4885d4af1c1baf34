package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/newshub/apiserver/internal/apperr"
	"github.com/newshub/apiserver/internal/store"
	"github.com/newshub/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor for stored passwords.
const PasswordHashCost = 12

var (
	errInvalidCredentials = apperr.New(apperr.KindInvalidCredentials, "Invalid email or password")
	errEmailInUse         = apperr.New(apperr.KindEmailInUse, "A user with this email already exists")
	errUserNotFound       = apperr.NotFound("User not found")
)

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	events *Events
	cost   int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserService(repo UserRepository, events *Events) *UserService {
	return &UserService{repo: repo, events: events, cost: PasswordHashCost}
}

// Register validates and stores a new account.
func (s *UserService) Register(ctx context.Context, name, email, password string) (types.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	var problems []string
	problems = append(problems, validateName(name)...)
	problems = append(problems, validateEmail(email)...)
	problems = append(problems, validatePassword(password)...)
	if len(problems) > 0 {
		return types.User{}, apperr.Validation(strings.Join(problems, "; "))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return types.User{}, apperr.Internal(err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, errEmailInUse
		}
		return types.User{}, apperr.Internal(err)
	}

	s.events.emit(ctx, EventUserRegistered, userRegisteredEvent{
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: user.CreatedAt,
	})
	return user, nil
}

// Verify checks credentials. Unknown emails and wrong passwords produce the
// same error, and both cost one bcrypt comparison.
func (s *UserService) Verify(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return types.User{}, errInvalidCredentials
		}
		return types.User{}, apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, errInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, errUserNotFound
		}
		return types.User{}, apperr.Internal(err)
	}
	return user, nil
}

// UpdateProfile applies a partial update. A password change requires the
// current password.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update types.ProfileUpdate) (types.User, error) {
	if update.Name == nil && update.Email == nil && update.NewPassword == nil {
		return types.User{}, apperr.Validation("No changes provided")
	}

	var problems []string
	var name, email string
	if update.Name != nil {
		name = strings.TrimSpace(*update.Name)
		problems = append(problems, validateName(name)...)
	}
	if update.Email != nil {
		email = normalizeEmail(*update.Email)
		problems = append(problems, validateEmail(email)...)
	}
	if update.NewPassword != nil {
		if update.CurrentPassword == nil || *update.CurrentPassword == "" {
			problems = append(problems, "Current password is required to set a new password")
		}
		problems = append(problems, validatePassword(*update.NewPassword)...)
	}
	if len(problems) > 0 {
		return types.User{}, apperr.Validation(strings.Join(problems, "; "))
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}

	if update.Name != nil {
		user.Name = name
	}
	if update.Email != nil {
		user.Email = email
	}
	if update.NewPassword != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*update.CurrentPassword)); err != nil {
			return types.User{}, apperr.New(apperr.KindInvalidPassword, "Current password is incorrect")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.NewPassword), s.cost)
		if err != nil {
			return types.User{}, apperr.Internal(err)
		}
		user.PasswordHash = string(hashed)
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return types.User{}, errEmailInUse
		case errors.Is(err, store.ErrNotFound):
			return types.User{}, errUserNotFound
		}
		return types.User{}, apperr.Internal(err)
	}
	return updated, nil
}

// dummy returns a hash compared against when the email is unknown.
func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte(time.Now().String()), s.cost)
		if err == nil {
			s.dummyHash = hashed
		}
	})
	return s.dummyHash
}

package fakeuserrepo

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	apierrors "github.com/jomko/go-session-api/internal/errors"
	"github.com/jomko/go-session-api/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	email := users.NormalizeEmail(user.Email)
	if existingID, ok := ur.emailIds[email]; ok && existingID != user.ID {
		return errors.New("email already in use")
	}
	ur.users[user.ID] = user
	ur.emailIds[email] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, email string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return apierrors.ErrUserNotFound
	}
	delete(ur.emailIds, users.NormalizeEmail(email))
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, apierrors.ErrUserNotFound
	}
	return ur.users[userID], nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, apierrors.ErrUserNotFound
	}
	return user, nil
}

func (ur *FakeUserRepo) UpdatePasswordHash(_ context.Context, userID, passwordHash string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[userID]
	if !ok {
		return apierrors.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

package service

import (
	"context"
	"strings"

	"github.com/opencase-io/opencase/internal/models"
)

// UserService manages the analyst directory.
type UserService struct {
	users UserRepo
}

// NewUserService wires a UserService.
func NewUserService(users UserRepo) *UserService {
	return &UserService{users: users}
}

// CreateUser validates and registers a new user. Usernames are unique;
// repository.ErrUserExists surfaces unchanged for the handler to map to 409.
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if err := requireNonEmpty("username", req.Username); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("email", req.Email); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("full_name", req.FullName); err != nil {
		return nil, err
	}
	if !strings.Contains(req.Email, "@") {
		return nil, invalidf("email", "must contain @")
	}
	return s.users.Create(ctx, req)
}

// GetUser returns a single user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.Get(ctx, id)
}

// ListUsers returns all users, oldest first.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opencase-io/opencase/internal/docstore"
	"github.com/opencase-io/opencase/internal/models"
)

// UserDirectory owns the users collection.
type UserDirectory struct {
	store docstore.Store
}

// NewUserDirectory creates a user directory over the given store.
func NewUserDirectory(store docstore.Store) *UserDirectory {
	return &UserDirectory{store: store}
}

// Create registers a user. Usernames are unique; a duplicate returns
// ErrUserExists. The check-then-insert is not atomic, matching the store's
// lack of multi-document transactions.
func (d *UserDirectory) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	n, err := d.store.Count(ctx, docstore.CollectionUsers,
		docstore.Query{Terms: map[string]string{"username": req.Username}})
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if n > 0 {
		return nil, ErrUserExists
	}

	u := &models.User{
		ID:        newID(),
		Username:  req.Username,
		Email:     req.Email,
		FullName:  req.FullName,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.store.Index(ctx, docstore.CollectionUsers, u.ID, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Get returns the user or ErrUserNotFound.
func (d *UserDirectory) Get(ctx context.Context, id string) (*models.User, error) {
	raw, err := d.store.Get(ctx, docstore.CollectionUsers, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &u, nil
}

// List returns all users, oldest first.
func (d *UserDirectory) List(ctx context.Context) ([]*models.User, error) {
	raws, _, err := d.store.Search(ctx, docstore.CollectionUsers, docstore.Query{},
		docstore.Sort{Field: "created_at"}, 0, 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*models.User, 0, len(raws))
	for _, raw := range raws {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, &u)
	}
	return users, nil
}

package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/imrishuroy/quickcart/internal/auth"
)

// DefaultName is used when the identity provider supplies no display name.
const DefaultName = "Customer"

// Repository is the storage the Resolver needs.
type Repository interface {
	FindByID(ctx context.Context, userID string) (*User, error)
	Create(ctx context.Context, u *User) error
}

// Resolver maps a verified identity to its local user record.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the user for id, creating a placeholder profile with an
// empty cart on first sight. Concurrent first requests converge on a single
// record: the loser of the create race re-reads the winner's.
func (r *Resolver) Resolve(ctx context.Context, id auth.Identity) (*User, error) {
	if id.UserID == "" {
		return nil, auth.ErrUnauthenticated
	}

	u, err := r.repo.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u = placeholder(id)
	err = r.repo.Create(ctx, u)
	switch {
	case err == nil:
		zerolog.Ctx(ctx).Info().Str("user_id", u.UserID).Msg("created user record")
		return u, nil
	case errors.Is(err, ErrUserExists):
		existing, err := r.repo.FindByID(ctx, id.UserID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("user %s vanished after create conflict", id.UserID)
		}
		return existing, nil
	default:
		return nil, err
	}
}

func placeholder(id auth.Identity) *User {
	name := id.Name
	if name == "" {
		name = DefaultName
	}
	return &User{
		UserID:    id.UserID,
		Name:      name,
		Email:     id.Email,
		ImageURL:  id.ImageURL,
		CartItems: map[string]int{},
	}
}

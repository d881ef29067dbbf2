package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/quickcart/internal/auth"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) FindByID(ctx context.Context, userID string) (*User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*User)
	return u, args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func TestResolver_CreatesOnFirstSight(t *testing.T) {
	s, _ := newTestStore(t)
	r := NewResolver(s)
	ctx := context.Background()

	u, err := r.Resolve(ctx, auth.Identity{UserID: "u1", Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, u.Name)
	assert.Equal(t, "a@b.c", u.Email)
	assert.Empty(t, u.CartItems)

	again, err := r.Resolve(ctx, auth.Identity{UserID: "u1", Name: "Changed"})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, again.Name)
}

func TestResolver_ReturnsExisting(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Save(context.Background(), &User{UserID: "u1", Name: "Jane", CartItems: map[string]int{"p1": 1}}))

	u, err := NewResolver(s).Resolve(context.Background(), auth.Identity{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", u.Name)
	assert.Equal(t, map[string]int{"p1": 1}, u.CartItems)
}

func TestResolver_LostCreateRace(t *testing.T) {
	repo := new(mockRepository)
	winner := &User{UserID: "u1", Name: "Winner", CartItems: map[string]int{}}
	repo.On("FindByID", mock.Anything, "u1").Return(nil, nil).Once()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*users.User")).Return(ErrUserExists).Once()
	repo.On("FindByID", mock.Anything, "u1").Return(winner, nil).Once()

	u, err := NewResolver(repo).Resolve(context.Background(), auth.Identity{UserID: "u1", Name: "Loser"})
	require.NoError(t, err)
	assert.Same(t, winner, u)
	repo.AssertExpectations(t)
}

func TestResolver_Errors(t *testing.T) {
	_, err := NewResolver(new(mockRepository)).Resolve(context.Background(), auth.Identity{})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	repo := new(mockRepository)
	repo.On("FindByID", mock.Anything, "u1").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("write failed"))
	_, err = NewResolver(repo).Resolve(context.Background(), auth.Identity{UserID: "u1"})
	assert.ErrorContains(t, err, "write failed")
}

package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/quickcart/internal/aws/awsmock"
)

const usersTable = "users"

func newTestStore(t *testing.T) (*Store, *awsmock.Dynamo) {
	t.Helper()
	mock := awsmock.NewDynamo()
	mock.CreateTable(usersTable, "user_id")
	return NewStore(mock, usersTable), mock
}

func TestStore_CreateAndFind(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &User{UserID: "u1", Name: "Jane", Email: "jane@example.com"}))

	got, err := s.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane", got.Name)
	assert.NotNil(t, got.CartItems)
	assert.Empty(t, got.CartItems)
}

func TestStore_CreateConflict(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &User{UserID: "u1", Name: "First"}))
	err := s.Create(ctx, &User{UserID: "u1", Name: "Second"})
	assert.ErrorIs(t, err, ErrUserExists)

	got, err := s.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name)
}

func TestStore_SaveCart(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	u := &User{UserID: "u1", Name: "Jane", CartItems: map[string]int{"p1": 2}}
	require.NoError(t, s.Save(ctx, u))

	u.CartItems = map[string]int{}
	require.NoError(t, s.Save(ctx, u))

	got, err := s.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.CartItems)
}

func TestStore_FindMissing(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.FindByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Errors(t *testing.T) {
	s, mock := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.Save(ctx, &User{}))

	mock.FailOn["GetItem"] = errors.New("unavailable")
	_, err := s.FindByID(ctx, "u1")
	assert.ErrorContains(t, err, "unavailable")
}

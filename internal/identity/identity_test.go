package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) FindByLogin(_ context.Context, login string) (*models.User, error) {
	if login == "boom" {
		return nil, errors.New("db down")
	}
	for _, u := range f {
		if u.Username == login || strings.ToLower(u.Email) == login {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

var users = fakeUsers{
	"alice": {ID: 1, Username: "alice", Email: "Alice@Example.com", DisplayName: "Alice"},
	"bob":   {ID: 2, Username: "bob", Email: "bob@example.com", DisplayName: "Bob", Role: models.RoleAdmin},
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "alice", Canonical("  ALICE "))
	assert.True(t, IsPlaceholder(" undefined"))
	assert.True(t, IsPlaceholder("NULL"))
	assert.True(t, IsPlaceholder(""))
	assert.False(t, IsPlaceholder("alice"))
}

func TestResolve(t *testing.T) {
	r := NewResolver(users)
	ctx := context.Background()

	tests := []struct {
		ref        string
		id         string
		registered bool
	}{
		{ref: "alice", id: "alice", registered: true},
		{ref: " ALICE@example.com ", id: "alice", registered: true},
		{ref: "Bob", id: "bob", registered: true},
		{ref: "carol@example.com", id: "carol@example.com", registered: false},
		{ref: "unknown", id: "", registered: false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			id, registered, err := r.Resolve(ctx, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.registered, registered)
		})
	}

	_, _, err := r.Resolve(ctx, "boom")
	assert.Error(t, err)
}

func TestResolveAll(t *testing.T) {
	r := NewResolver(users)
	ids, err := r.ResolveAll(context.Background(), []string{"bob", "ghost", "BOB@example.com", "alice", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, ids)
}

func TestSessionFor(t *testing.T) {
	s := SessionFor(users["alice"])
	assert.Equal(t, "alice", s.UserID)
	assert.Equal(t, "alice@example.com", s.Email)
	assert.Equal(t, models.RoleUser, s.Role)
	assert.True(t, SessionFor(users["bob"]).IsAdmin())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"", "null", "undefined", "unknown"}, Placeholders())
}

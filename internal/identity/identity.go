// Package identity turns loose user references (a username or an email, in any case)
// into the canonical user id stored everywhere else.
package identity

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
)

// placeholders are values legacy clients wrote when they had no owner to record
var placeholders = map[string]bool{
	"":          true,
	"undefined": true,
	"null":      true,
	"unknown":   true,
}

// Canonical trims and lower-cases a reference
func Canonical(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

// IsPlaceholder reports whether a stored id carries no identity
func IsPlaceholder(id string) bool {
	return placeholders[Canonical(id)]
}

// Placeholders lists the stored values IsPlaceholder accepts
func Placeholders() []string {
	out := make([]string, 0, len(placeholders))
	for p := range placeholders {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// UserLookup finds a user whose username or email equals login
type UserLookup interface {
	FindByLogin(ctx context.Context, login string) (*models.User, error)
}

type Resolver struct {
	users UserLookup
}

func NewResolver(users UserLookup) *Resolver {
	return &Resolver{users: users}
}

// Resolve maps ref to a canonical user id. Registered users resolve to their username,
// whichever of username or email ref named. Unknown refs resolve to their canonical
// form with registered=false.
func (r *Resolver) Resolve(ctx context.Context, ref string) (id string, registered bool, err error) {
	c := Canonical(ref)
	if IsPlaceholder(c) {
		return "", false, nil
	}
	u, err := r.users.FindByLogin(ctx, c)
	if errors.Is(err, repositories.ErrNotFound) {
		return c, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return Canonical(u.Username), true, nil
}

// ResolveAll resolves refs, dropping placeholders and unregistered users and collapsing duplicates.
// Order of first appearance is kept.
func (r *Resolver) ResolveAll(ctx context.Context, refs []string) ([]string, error) {
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, registered, err := r.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		if !registered || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// Email returns the current email of a registered user, "" when userID names nobody
func (r *Resolver) Email(ctx context.Context, userID string) (string, error) {
	c := Canonical(userID)
	if IsPlaceholder(c) {
		return "", nil
	}
	u, err := r.users.FindByLogin(ctx, c)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return Canonical(u.Email), nil
}

// SessionFor builds the session of an authenticated user
func SessionFor(u *models.User) *models.Session {
	role := u.Role
	if role == "" {
		role = models.RoleUser
	}
	return &models.Session{
		AccountID:   u.ID,
		UserID:      Canonical(u.Username),
		Email:       Canonical(u.Email),
		DisplayName: u.DisplayName,
		Role:        role,
	}
}

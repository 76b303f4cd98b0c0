package middleware

import (
	"context"
	"fmt"

	"github.com/anonto42/folio/backend/internal/identity"
	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/pkg/firebase"
)

// FirebaseVerifier checks Firebase ID tokens
type FirebaseVerifier interface {
	Verify(ctx context.Context, idToken string) (*firebase.IDToken, error)
}

// FirebaseUsers finds the local account linked to a Firebase UID
type FirebaseUsers interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// WithFirebase lets the authenticator accept Firebase ID tokens of linked accounts
func (a *Authenticator) WithFirebase(verifier FirebaseVerifier, users FirebaseUsers) *Authenticator {
	a.firebase = verifier
	a.users = users
	return a
}

func (a *Authenticator) firebaseSession(ctx context.Context, idToken string) (*models.Session, error) {
	token, err := a.firebase.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	user, err := a.users.GetUserByFirebaseUID(ctx, token.UID)
	if err != nil {
		return nil, fmt.Errorf("firebase uid %s has no linked account: %w", token.UID, err)
	}
	return identity.SessionFor(user), nil
}

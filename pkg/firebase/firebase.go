package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/anonto42/folio/backend/pkg/logging"
)

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// IDToken is the subset of a verified Firebase token the service relies on
type IDToken struct {
	UID           string
	Email         string
	EmailVerified bool
	DisplayName   string
}

// InitFirebase initializes the Firebase application and authentication client.
// An empty credentials path disables Firebase and returns (nil, nil).
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		logging.GetLogger().Info("Firebase credentials not configured, Firebase login disabled")
		return nil, nil
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	logging.GetLogger().Info("Firebase app and auth client initialized", zap.String("credentials", credentialsPath))
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// Verify checks a Firebase ID token and extracts the identity claims
func (a *App) Verify(ctx context.Context, idToken string) (*IDToken, error) {
	token, err := a.AuthClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	out := &IDToken{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		out.Email = email
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		out.EmailVerified = verified
	}
	if name, ok := token.Claims["name"].(string); ok {
		out.DisplayName = name
	}
	if out.Email == "" {
		return nil, fmt.Errorf("firebase token for %s carries no email", token.UID)
	}
	return out, nil
}

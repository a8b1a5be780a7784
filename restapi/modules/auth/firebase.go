package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	e "github.com/sdstartups/startupmap-backend/errors"
	"google.golang.org/api/option"
)

// idTokenVerifier is the part of the Firebase Auth client used here.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier validates Firebase ID tokens.
type FirebaseVerifier struct {
	client idTokenVerifier
}

// InitializeFirebase initializes the Firebase Admin SDK and returns a verifier
// backed by its Auth client.
func InitializeFirebase(ctx context.Context, credentialsPath string) (*FirebaseVerifier, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	return &FirebaseVerifier{client: authClient}, nil
}

// Verify implements Verifier.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	decodedToken, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", e.ErrUnauthenticated, err)
	}

	id := Identity{Subject: decodedToken.UID}
	// Extract email from claims if available
	if email, ok := decodedToken.Claims["email"].(string); ok {
		id.Email = email
	}
	return id, nil
}

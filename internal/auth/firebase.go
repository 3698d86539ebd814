package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// FirebaseClients bundles the Admin SDK clients this system uses: the
// auth client for token verification and the database client for the
// realtime store driver.
type FirebaseClients struct {
	Auth     *fbauth.Client
	Database *db.Client
}

// InitializeFirebase initializes the Firebase Admin SDK from a service
// account file. databaseURL may be empty when the store runs on
// another driver; the database client is skipped in that case.
func InitializeFirebase(ctx context.Context, credentialsPath, databaseURL string) (*FirebaseClients, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	clients := &FirebaseClients{Auth: authClient}
	if databaseURL != "" {
		dbClient, err := app.Database(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Database client: %w", err)
		}
		clients.Database = dbClient
	}

	return clients, nil
}

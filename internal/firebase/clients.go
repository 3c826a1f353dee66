package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"team-checkin/backend/internal/config"
)

// Clients bundles Firebase + GCP clients used by the services.
type Clients struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client
	Storage   *storage.Client
	Messaging *messaging.Client
	IAM       *credentials.IamCredentialsClient

	ProjectID string
	Bucket    string
}

func NewClients(ctx context.Context, cfg config.Config) (*Clients, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("missing FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT")
	}

	opts := credentialOptions(cfg)

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, err
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}

	fs, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	c := &Clients{
		App:       app,
		Auth:      authClient,
		Firestore: fs,
		ProjectID: cfg.ProjectID,
		Bucket:    cfg.StorageBucket,
	}

	// Storage, messaging and IAM only back reminders and exports, which
	// report "not configured" when their client is missing.
	if st, err := storage.NewClient(ctx, opts...); err != nil {
		logrus.WithError(err).Warn("storage client unavailable, exports disabled")
	} else {
		c.Storage = st
	}
	if msg, err := app.Messaging(ctx); err != nil {
		logrus.WithError(err).Warn("messaging client unavailable, reminders disabled")
	} else {
		c.Messaging = msg
	}
	if cfg.SignedURLServiceAccountEmail != "" {
		if iam, err := credentials.NewIamCredentialsClient(ctx, opts...); err != nil {
			logrus.WithError(err).Warn("IAM credentials client unavailable, export links disabled")
		} else {
			c.IAM = iam
		}
	}
	return c, nil
}

// NewAuthClient is enough for the admin CLI's custom-claims command.
func NewAuthClient(ctx context.Context, cfg config.Config) (*auth.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, credentialOptions(cfg)...)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Firestore != nil {
		_ = c.Firestore.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.IAM != nil {
		_ = c.IAM.Close()
	}
}

// credentialOptions prefers FIREBASE_SERVICE_ACCOUNT_JSON (raw json content),
// then GOOGLE_APPLICATION_CREDENTIALS (file path). In Cloud Run / GCP,
// Application Default Credentials are used automatically.
func credentialOptions(cfg config.Config) []option.ClientOption {
	if cfg.ServiceAccountJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}
	}
	if cred := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); cred != "" {
		return []option.ClientOption{option.WithCredentialsFile(cred)}
	}
	return nil
}

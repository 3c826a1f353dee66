package export

import (
	"context"
	"fmt"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// Bucket writes export objects to Cloud Storage.
type Bucket struct {
	client *storage.Client
	name   string
}

func NewBucket(client *storage.Client, name string) *Bucket {
	return &Bucket{client: client, name: name}
}

func (b *Bucket) Write(ctx context.Context, object, contentType string, data []byte) error {
	w := b.client.Bucket(b.name).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// IAMSigner signs V4 GET URLs through the IAM Credentials API, so the
// service needs no private key on disk.
type IAMSigner struct {
	iam            *credentials.IamCredentialsClient
	bucket         string
	serviceAccount string
}

func NewIAMSigner(iam *credentials.IamCredentialsClient, bucket, serviceAccount string) *IAMSigner {
	return &IAMSigner{iam: iam, bucket: bucket, serviceAccount: serviceAccount}
}

func (s *IAMSigner) SignedURL(ctx context.Context, object string, expires time.Time) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("FIREBASE_STORAGE_BUCKET is not set")
	}
	if s.serviceAccount == "" {
		return "", fmt.Errorf("SIGNED_URL_SERVICE_ACCOUNT_EMAIL is not set")
	}
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        expires,
		GoogleAccessID: s.serviceAccount,
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := s.iam.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.serviceAccount),
				Payload: b,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		},
	}
	return storage.SignedURL(s.bucket, object, opts)
}

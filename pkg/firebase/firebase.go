package firebase

import (
	"context"
	"fmt"
	"os"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app, its auth client and, when a
// storage bucket is configured, the bucket handle used for image uploads.
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Bucket      *gcs.BucketHandle
	BucketName  string
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath, storageBucket string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	var conf *firebase.Config
	if storageBucket != "" {
		conf = &firebase.Config{StorageBucket: storageBucket}
	}

	firebaseApp, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	app := &App{FirebaseApp: firebaseApp, AuthClient: authClient}

	if storageBucket != "" {
		storageClient, err := firebaseApp.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting firebase storage client: %w", err)
		}
		bucket, err := storageClient.DefaultBucket()
		if err != nil {
			return nil, fmt.Errorf("error opening storage bucket %s: %w", storageBucket, err)
		}
		app.Bucket = bucket
		app.BucketName = storageBucket
		logrus.WithField("bucket", storageBucket).Info("Firebase storage bucket configured.")
	}

	logrus.Info("Firebase app and auth client initialized successfully!")
	return app, nil
}

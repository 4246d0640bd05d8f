package push

import (
	"context"
	"fmt"

	domainPush "bitealert_reminder_service/internal/domain/push"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMClient implements the domain push client on top of Firebase Cloud
// Messaging.
type FCMClient struct {
	messaging *messaging.Client
}

// NewFCMClient initializes the Firebase app from a service account
// credentials file and returns a messaging adapter.
func NewFCMClient(ctx context.Context, credentialsFile string) (*FCMClient, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize FCM messaging client: %w", err)
	}
	return &FCMClient{messaging: client}, nil
}

// Send delivers one push message and returns the FCM message id.
func (c *FCMClient) Send(ctx context.Context, msg domainPush.Message) (string, error) {
	id, err := c.messaging.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send FCM message: %w", err)
	}
	return id, nil
}

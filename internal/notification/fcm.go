package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMNotifier broadcasts events to every device subscribed to one topic.
type FCMNotifier struct {
	client messageSender
	topic  string
}

// NewFCMNotifier prefers base64-encoded service account JSON and falls back
// to a local key file.
func NewFCMNotifier(ctx context.Context, encodedCreds, localFilePath, topic string) (*FCMNotifier, error) {
	var opt option.ClientOption

	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Info("FCM: initializing from FCM_SERVICE_ACCOUNT_JSON")
	} else {
		if _, err := os.Stat(localFilePath); err != nil {
			return nil, fmt.Errorf("firebase credentials file %q: %w", localFilePath, err)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.WithField("path", localFilePath).Info("FCM: initializing from local file")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMNotifier{client: client, topic: topic}, nil
}

func (f *FCMNotifier) Name() string { return "fcm" }

func (f *FCMNotifier) Notify(ctx context.Context, e Event) error {
	message := &messaging.Message{
		Topic: f.topic,
		Notification: &messaging.Notification{
			Title: "Dungeon progress",
			Body:  FormatMessage(e),
		},
		Data: map[string]string{
			"userId":      e.UserID,
			"date":        e.Date.String(),
			"streakCount": strconv.Itoa(e.StreakCount),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
	}

	id, err := f.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("fcm send to topic %s: %w", f.topic, err)
	}
	log.WithFields(log.Fields{"topic": f.topic, "message_id": id}).Debug("FCM: message sent")
	return nil
}

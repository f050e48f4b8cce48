package notify

import (
	"context"
	"fmt"
	"log"
	"sbs/src/lib"

	"firebase.google.com/go/v4/messaging"
)

// FCMSink pushes intents to the recipient's per-user topic. Clients
// subscribe to their topic when registering a device token.
type FCMSink struct{}

func (FCMSink) Send(ctx context.Context, intent Intent) error {
	fcm, err := lib.GetFirebaseMessaging()
	if err != nil {
		return err
	}
	res, err := fcm.Send(ctx, &messaging.Message{
		Notification: &messaging.Notification{
			Title: intent.Title,
			Body:  intent.Body,
		},
		Data:  intent.Metadata,
		Topic: fmt.Sprintf("user-%s", intent.RecipientID),
	})
	if err != nil {
		return err
	}
	log.Printf("[FCM] sent message: %s\n", res)
	return nil
}

package notify

import (
	"context"
	"sbs/src/lib"
)

// KafkaSink mirrors every intent onto a broker topic so downstream
// consumers (audit, analytics) see the same lifecycle events the
// recipients are notified about.
type KafkaSink struct {
	Topic string
}

func (s KafkaSink) Send(ctx context.Context, intent Intent) error {
	payload := map[string]any{
		"id":          intent.ID,
		"recipientId": intent.RecipientID,
		"title":       intent.Title,
		"body":        intent.Body,
		"metadata":    intent.Metadata,
	}
	return lib.KafkaProduceMessage("BookingNotificationsProducer", s.Topic, payload)
}

package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/email"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/repository"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// NotificationSink writes an in-app notification for the event's recipient.
type NotificationSink struct {
	repo repository.NotificationRepository
}

func NewNotificationSink(repo repository.NotificationRepository) *NotificationSink {
	return &NotificationSink{repo: repo}
}

func (s *NotificationSink) Name() string { return "notification" }

func (s *NotificationSink) Deliver(ctx context.Context, e domain.Event) error {
	title, body := render(e)
	attrs := map[string]string{
		"type":     string(e.Type),
		"event_id": strconv.FormatInt(e.ID, 10),
	}
	if id := e.Payload[domain.PayloadApplicationID]; id != "" {
		attrs[domain.PayloadApplicationID] = id
	}
	if id := e.Payload[domain.PayloadOpportunityID]; id != "" {
		attrs[domain.PayloadOpportunityID] = id
	}
	return s.repo.Create(ctx, &domain.Notification{
		ProfileID:  e.RecipientID(),
		Title:      title,
		Message:    body,
		Attributes: attrs,
	})
}

// MessageSink posts a system message on the application thread.
type MessageSink struct {
	repo repository.MessageRepository
}

func NewMessageSink(repo repository.MessageRepository) *MessageSink {
	return &MessageSink{repo: repo}
}

func (s *MessageSink) Name() string { return "message" }

func (s *MessageSink) Deliver(ctx context.Context, e domain.Event) error {
	if !isApplicationEvent(e.Type) {
		return nil
	}
	appID := e.Payload[domain.PayloadApplicationID]
	_, body := render(e)
	return s.repo.Create(ctx, &domain.Message{
		ID:            uuid.NewString(),
		ApplicationID: &appID,
		RecipientID:   e.RecipientID(),
		Body:          body,
	})
}

// EmailSink mails the recipient when their profile has an address.
type EmailSink struct {
	mailer   email.Mailer
	profiles repository.ProfileRepository
}

func NewEmailSink(mailer email.Mailer, profiles repository.ProfileRepository) *EmailSink {
	return &EmailSink{mailer: mailer, profiles: profiles}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(ctx context.Context, e domain.Event) error {
	recipient, err := s.profiles.GetByID(ctx, e.RecipientID())
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if recipient.Email == nil || *recipient.Email == "" {
		logger.Debug("Recipient has no email address, skipping", "profileID", recipient.ID, "eventID", e.ID)
		return nil
	}
	subject, body := render(e)
	body = fmt.Sprintf("Hello %s,\n\n%s\n\nBest regards,\nThe SkillBridge Team", recipient.Name, body)
	return s.mailer.Send(ctx, *recipient.Email, recipient.Name, subject, body)
}

// PushClient is the subset of *messaging.Client used for push delivery.
type PushClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSink publishes to the Firebase topic the recipient's devices subscribe to.
type PushSink struct {
	client PushClient
}

func NewPushSink(client PushClient) *PushSink {
	return &PushSink{client: client}
}

func (s *PushSink) Name() string { return "push" }

func ProfileTopic(profileID string) string {
	return "profile-" + profileID
}

func (s *PushSink) Deliver(ctx context.Context, e domain.Event) error {
	title, body := render(e)
	data := make(map[string]string, len(e.Payload)+1)
	for k, v := range e.Payload {
		data[k] = v
	}
	data["type"] = string(e.Type)

	logger.ExternalServiceCall("firebase", "messaging.Send", "eventID", e.ID)
	_, err := s.client.Send(ctx, &messaging.Message{
		Topic:        ProfileTopic(e.RecipientID()),
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	logger.ExternalServiceResult("firebase", "messaging.Send", err, "eventID", e.ID)
	return err
}

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes events keyed by aggregate id, so a hash balancer keeps
// one application's events on one partition in order.
type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

// NewKafkaWriter builds a synchronous writer for topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Deliver(ctx context.Context, e domain.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", e.ID, err)
	}
	logger.ExternalServiceCall("kafka", "WriteMessages", "eventID", e.ID, "key", e.AggregateID)
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	logger.ExternalServiceResult("kafka", "WriteMessages", err, "eventID", e.ID)
	return err
}

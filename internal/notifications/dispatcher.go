package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/eduport/eduport-backend/pkg/db/models"
	"github.com/eduport/eduport-backend/pkg/enums"
	"github.com/eduport/eduport-backend/pkg/logger"
	"github.com/eduport/eduport-backend/pkg/metrics"
)

// EventNotificationCreated tags every dispatched notification event so
// consumers can skip foreign messages on the shared topic.
const EventNotificationCreated = "notification_created"

const defaultDispatchTimeout = 15 * time.Second

// EventPublisher sends a serialized notification event to the fan-out topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, payload []byte) error
}

// TopicPublisher adapts a Pub/Sub publisher to the EventPublisher contract.
type TopicPublisher struct {
	pub *pubsub.Publisher
}

// NewTopicPublisher wraps the provided Pub/Sub publisher handle.
func NewTopicPublisher(pub *pubsub.Publisher) (*TopicPublisher, error) {
	if pub == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &TopicPublisher{pub: pub}, nil
}

func (p *TopicPublisher) PublishEvent(ctx context.Context, eventType string, payload []byte) error {
	result := p.pub.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"event_type": eventType},
	})
	_, err := result.Get(ctx)
	return err
}

type adminDirectory interface {
	ListActiveAdmins(ctx context.Context) ([]models.User, error)
}

// EventEnvelope is the wire shape published for every persisted notification.
// EventID makes push delivery claimable at most once downstream.
type EventEnvelope struct {
	EventID string                 `json:"event_id"`
	UserID  string                 `json:"user_id"`
	Type    enums.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Data    map[string]any         `json:"data,omitempty"`
}

// Dispatcher persists notifications and fans the event out to the push
// pipeline. It is strictly best-effort: the Async variants detach from the
// caller and swallow every failure, so a slow or broken provider can never
// fail a workflow decision.
type Dispatcher struct {
	repo      Repository
	admins    adminDirectory
	publisher EventPublisher
	metrics   *metrics.NotificationMetrics
	logg      *logger.Logger
	timeout   time.Duration
}

// NewDispatcher wires the notification fan-out dependencies.
func NewDispatcher(repo Repository, admins adminDirectory, publisher EventPublisher, notifMetrics *metrics.NotificationMetrics, logg *logger.Logger, timeout time.Duration) (*Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin directory required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{
		repo:      repo,
		admins:    admins,
		publisher: publisher,
		metrics:   notifMetrics,
		logg:      logg,
		timeout:   timeout,
	}, nil
}

// NotifyOne persists a notification for the user and publishes the event.
// The record is written even when publishing fails; the returned error
// aggregates whatever went wrong.
func (d *Dispatcher) NotifyOne(ctx context.Context, userID uuid.UUID, ntype enums.NotificationType, title, message string, data map[string]any) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id required")
	}
	if !ntype.IsValid() {
		return fmt.Errorf("invalid notification type %q", ntype)
	}

	var raw json.RawMessage
	if len(data) > 0 {
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode notification data: %w", err)
		}
		raw = encoded
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
		Data:    raw,
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		d.metrics.IncDispatched(string(ntype), "error")
		return fmt.Errorf("persist notification: %w", err)
	}

	envelope := EventEnvelope{
		EventID: notification.ID.String(),
		UserID:  userID.String(),
		Type:    ntype,
		Title:   title,
		Message: message,
		Data:    data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		d.metrics.IncDispatched(string(ntype), "error")
		return fmt.Errorf("encode notification event: %w", err)
	}
	if err := d.publisher.PublishEvent(ctx, EventNotificationCreated, payload); err != nil {
		d.metrics.IncDispatched(string(ntype), "publish_error")
		return fmt.Errorf("publish notification event: %w", err)
	}

	d.metrics.IncDispatched(string(ntype), "ok")
	return nil
}

// NotifyMany applies the NotifyOne contract per recipient; one failing
// recipient does not block the rest.
func (d *Dispatcher) NotifyMany(ctx context.Context, userIDs []uuid.UUID, ntype enums.NotificationType, title, message string, data map[string]any) error {
	var errs error
	for _, userID := range userIDs {
		if err := d.NotifyOne(ctx, userID, ntype, title, message, data); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// NotifyOneAsync dispatches in a detached goroutine, discarding all errors.
func (d *Dispatcher) NotifyOneAsync(ctx context.Context, userID uuid.UUID, ntype enums.NotificationType, title, message string, data map[string]any) {
	d.detach(ctx, func(ctx context.Context) error {
		return d.NotifyOne(ctx, userID, ntype, title, message, data)
	})
}

// NotifyManyAsync dispatches to several recipients in a detached goroutine.
func (d *Dispatcher) NotifyManyAsync(ctx context.Context, userIDs []uuid.UUID, ntype enums.NotificationType, title, message string, data map[string]any) {
	d.detach(ctx, func(ctx context.Context) error {
		return d.NotifyMany(ctx, userIDs, ntype, title, message, data)
	})
}

// NotifyAdminsAsync resolves the active admins and dispatches to each in a
// detached goroutine.
func (d *Dispatcher) NotifyAdminsAsync(ctx context.Context, ntype enums.NotificationType, title, message string, data map[string]any) {
	d.detach(ctx, func(ctx context.Context) error {
		admins, err := d.admins.ListActiveAdmins(ctx)
		if err != nil {
			return fmt.Errorf("list admins: %w", err)
		}
		ids := make([]uuid.UUID, len(admins))
		for i, admin := range admins {
			ids[i] = admin.ID
		}
		return d.NotifyMany(ctx, ids, ntype, title, message, data)
	})
}

// detach runs fn on its own goroutine with a bounded deadline, decoupled from
// the caller's cancellation. Panics and errors are logged and dropped.
func (d *Dispatcher) detach(ctx context.Context, fn func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				d.logg.Error(detached, "notification dispatch panicked", fmt.Errorf("%v", rec))
			}
		}()

		runCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()

		if err := fn(runCtx); err != nil {
			d.logg.Error(runCtx, "notification dispatch failed", err)
		}
	}()
}

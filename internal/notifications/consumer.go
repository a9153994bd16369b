package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/eduport/eduport-backend/pkg/logger"
	"github.com/eduport/eduport-backend/pkg/metrics"
	"github.com/eduport/eduport-backend/pkg/push"
	pkgredis "github.com/eduport/eduport-backend/pkg/redis"
)

const (
	pushClaimScope = "push"
	pushClaimTTL   = 24 * time.Hour
)

type userDirectory interface {
	FindDeviceTokens(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

type pusher interface {
	Send(ctx context.Context, token string, msg push.Message, data map[string]any) (*push.Result, error)
}

// Consumer drains the notification topic and delivers push messages to
// device tokens. Delivery is at most once per event: the consumer claims the
// event id in Redis before sending and never retries a failed push.
type Consumer struct {
	subscription *pubsub.Subscriber
	claims       pkgredis.EventMarkStore
	users        userDirectory
	pusher       pusher
	metrics      *metrics.NotificationMetrics
	logg         *logger.Logger
}

// NewConsumer builds the push delivery consumer.
func NewConsumer(subscription *pubsub.Subscriber, claims pkgredis.EventMarkStore, users userDirectory, p pusher, notifMetrics *metrics.NotificationMetrics, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if claims == nil {
		return nil, fmt.Errorf("event mark store required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if p == nil {
		return nil, fmt.Errorf("push client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		claims:       claims,
		users:        users,
		pusher:       p,
		metrics:      notifMetrics,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msgID string, attrs map[string]string, data []byte) processResult {
	eventType := attrs["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msgID,
		"event_type": eventType,
	})

	if eventType != EventNotificationCreated {
		c.logg.Info(logCtx, "skipping foreign event")
		return processResult{ack: true}
	}

	var envelope EventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	userID, err := uuid.Parse(envelope.UserID)
	if err != nil {
		c.logg.Error(logCtx, "invalid user id in envelope", err)
		return processResult{ack: true}
	}
	if envelope.EventID == "" {
		c.logg.Error(logCtx, "missing event id in envelope", nil)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id": envelope.EventID,
		"user_id":  envelope.UserID,
	})

	claimKey := c.claims.EventMarkKey(pushClaimScope, envelope.EventID)
	claimed, err := c.claims.SetNX(ctx, claimKey, 1, pushClaimTTL)
	if err != nil {
		c.logg.Error(logCtx, "event claim failed", err)
		return processResult{nack: true}
	}
	if !claimed {
		c.logg.Info(logCtx, "event already delivered")
		return processResult{ack: true}
	}

	tokens, err := c.users.FindDeviceTokens(ctx, []uuid.UUID{userID})
	if err != nil {
		// Release the claim so the redelivery can retry the lookup.
		_ = c.claims.Del(ctx, claimKey)
		c.logg.Error(logCtx, "device token lookup failed", err)
		return processResult{nack: true}
	}

	token, ok := tokens[userID]
	if !ok {
		c.logg.Info(logCtx, "user has no device token")
		c.metrics.IncPush("no_token")
		return processResult{ack: true}
	}

	msg := push.Message{Title: envelope.Title, Body: envelope.Message}
	result, err := c.pusher.Send(ctx, token, msg, envelope.Data)
	if err != nil {
		// Push delivery is best-effort: keep the claim, ack, move on.
		c.logg.Error(logCtx, "push delivery failed", err)
		c.metrics.IncPush("error")
		return processResult{ack: true}
	}
	if result != nil && result.Failure > 0 {
		c.logg.Warn(logCtx, "push provider reported failures")
		c.metrics.IncPush("rejected")
		return processResult{ack: true}
	}

	c.metrics.IncPush("ok")
	c.logg.Info(logCtx, "push delivered")
	return processResult{ack: true}
}

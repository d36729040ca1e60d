package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/api/dto"
	"github.com/spec-kit/ticket-dashboard/internal/config"
	"github.com/spec-kit/ticket-dashboard/internal/events"
)

// Publisher delivers an encoded payload on a named channel.
type Publisher interface {
	Configured() bool
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// NotificationService forwards dashboard updates to presenters subscribed on Redis.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	logger     *zap.Logger
	cfg        config.RedisConfig
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, publisher Publisher, logger *zap.Logger, cfg config.RedisConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventDashboardUpdated, n.handleDashboardUpdated)
}

// Channel is the Redis channel a session's updates are published on.
func (n *NotificationService) Channel(sessionID string) string {
	prefix := strings.TrimSuffix(n.cfg.ChannelPrefix, ":")
	if prefix == "" {
		return sessionID
	}
	return prefix + ":" + sessionID
}

func (n *NotificationService) handleDashboardUpdated(ctx context.Context, note events.Notification) error {
	n.logger.Debug("DashboardUpdated",
		zap.String("session_id", note.SessionID),
		zap.String("cause", string(note.Cause)))

	if n.publisher == nil || !n.publisher.Configured() {
		return nil
	}

	snap, ok := note.Payload.(*Snapshot)
	if !ok || snap == nil {
		return fmt.Errorf("dashboard update %s: unexpected payload %T", note.ID, note.Payload)
	}
	body, err := json.Marshal(updateMessage{
		ID:        note.ID,
		Cause:     note.Cause,
		Timestamp: note.Timestamp,
		Snapshot:  dto.NewSnapshotResponse(snap.SessionID, snap.CreatedAt, snap.State, snap.Phase, snap.Dashboard),
	})
	if err != nil {
		return fmt.Errorf("encode dashboard update: %w", err)
	}

	channel := n.Channel(note.SessionID)
	receivers, err := n.publisher.Publish(ctx, channel, body)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	n.logger.Debug("dashboard update published",
		zap.String("channel", channel),
		zap.Int64("receivers", receivers))
	return nil
}

type updateMessage struct {
	ID        string               `json:"id"`
	Cause     events.EventType     `json:"cause"`
	Timestamp time.Time            `json:"timestamp"`
	Snapshot  dto.SnapshotResponse `json:"snapshot"`
}

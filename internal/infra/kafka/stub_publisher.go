package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/core/port"
	"github.com/arklim/taskboard-auth/internal/infra/logger"
)

// StubPublisher logs events instead of sending them; used when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(ctx context.Context, eventType, accountID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
	}
	logger.Scoped(ctx, p.logger).Info("stub event published", append(base, fields...)...)
}

func (p *StubPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	p.logEvent(ctx, EventAccountRegistered, event.AccountID, event.RegisteredAt,
		zap.String("email", logger.MaskEmail(event.Email)),
	)
	return nil
}

func (p *StubPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	p.logEvent(ctx, EventPasswordResetRequested, event.AccountID, event.RequestedAt,
		zap.String("masked_destination", event.MaskedDestination),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

func (p *StubPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent(ctx, EventPasswordChanged, event.AccountID, event.ChangedAt,
		zap.String("changed_by", event.ChangedBy),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)

package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/observability"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/push"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/ratelimit"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
)

const dispatchBatchSize = 10

// AudienceResolver resolves recipients into deliverable subscriptions.
type AudienceResolver interface {
	UsersInCohorts(ctx context.Context, identifiers []string) ([]string, error)
	ActiveSubscriptionsFor(ctx context.Context, userIDs []string) ([]domain.Subscription, error)
	FilterByPreference(ctx context.Context, subscriptions []domain.Subscription, notificationType domain.NotificationType) ([]domain.Subscription, error)
}

// Dispatcher fans a notification out to every deliverable subscription of an
// audience and records one audit log row per attempt.
type Dispatcher struct {
	resolver      AudienceResolver
	transport     push.Transport
	subscriptions repository.SubscriptionRepository
	logs          repository.LogRepository
	rateLimiter   ratelimit.RateLimiter
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

func NewDispatcher(
	resolver AudienceResolver,
	transport push.Transport,
	subscriptions repository.SubscriptionRepository,
	logs repository.LogRepository,
	rateLimiter ratelimit.RateLimiter,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if resolver == nil {
		return nil, fmt.Errorf("audience resolver is required")
	}
	if transport == nil {
		return nil, fmt.Errorf("push transport is required")
	}
	if subscriptions == nil {
		return nil, fmt.Errorf("subscription repository is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("log repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		resolver:      resolver,
		transport:     transport,
		subscriptions: subscriptions,
		logs:          logs,
		rateLimiter:   rateLimiter,
		logger:        logger,
		now:           time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// SendToUser delivers one notification to every deliverable subscription of a
// single user, sequentially.
func (d *Dispatcher) SendToUser(ctx context.Context, userID string, notificationType domain.NotificationType, payload domain.Payload) (*domain.DispatchResult, error) {
	if userID == "" {
		return &domain.DispatchResult{}, nil
	}
	return d.dispatch(ctx, []string{userID}, notificationType, payload)
}

// SendToMultipleUsers delivers one notification to every deliverable
// subscription of a user set. Deliveries run in batches of ten: sends inside
// a batch are concurrent, batches themselves are sequential.
func (d *Dispatcher) SendToMultipleUsers(ctx context.Context, userIDs []string, notificationType domain.NotificationType, payload domain.Payload) (*domain.DispatchResult, error) {
	if len(userIDs) == 0 {
		return &domain.DispatchResult{}, nil
	}
	return d.dispatch(ctx, userIDs, notificationType, payload)
}

// SendToCohort resolves cohort identifiers to their de-duplicated user union
// and delivers to it, so a member of several target cohorts (or one cohort
// named under both accepted spellings) receives exactly one notification.
// Unparseable identifiers contribute an empty audience, not an error.
func (d *Dispatcher) SendToCohort(ctx context.Context, cohortIdentifiers []string, notificationType domain.NotificationType, payload domain.Payload) (*domain.DispatchResult, error) {
	if len(cohortIdentifiers) == 0 {
		return &domain.DispatchResult{}, nil
	}

	userIDs, err := d.resolver.UsersInCohorts(ctx, cohortIdentifiers)
	if err != nil {
		return nil, err
	}
	return d.SendToMultipleUsers(ctx, userIDs, notificationType, payload)
}

func (d *Dispatcher) dispatch(ctx context.Context, userIDs []string, notificationType domain.NotificationType, payload domain.Payload) (*domain.DispatchResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	subscriptions, err := d.resolver.ActiveSubscriptionsFor(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscriptions: %w", err)
	}

	subscriptions, err = d.resolver.FilterByPreference(ctx, subscriptions, notificationType)
	if err != nil {
		return nil, err
	}
	if len(subscriptions) == 0 {
		return &domain.DispatchResult{}, nil
	}

	var sent, failed atomic.Int64

	for start := 0; start < len(subscriptions); start += dispatchBatchSize {
		end := start + dispatchBatchSize
		if end > len(subscriptions) {
			end = len(subscriptions)
		}

		g, groupCtx := errgroup.WithContext(ctx)
		for _, sub := range subscriptions[start:end] {
			sub := sub
			g.Go(func() error {
				if d.sendOne(groupCtx, sub, notificationType, payload) {
					sent.Add(1)
				} else {
					failed.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			break
		}
	}

	return &domain.DispatchResult{
		Sent:   int(sent.Load()),
		Failed: int(failed.Load()),
	}, nil
}

// sendOne performs a single delivery attempt and reports whether it was
// accepted. Every attempt gets an audit log row; log write failures are
// logged and swallowed so bookkeeping never turns a delivered notification
// into a reported failure.
func (d *Dispatcher) sendOne(ctx context.Context, sub domain.Subscription, notificationType domain.NotificationType, payload domain.Payload) bool {
	typeName := notificationType.String()

	d.metrics.IncDispatchInFlight()
	defer d.metrics.DecDispatchInFlight()

	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx, ratelimit.ScopePush); err != nil {
			d.logger.Warn("rate limiter wait failed",
				zap.String("subscriptionId", sub.ID),
				zap.Error(err),
			)
			d.recordAttempt(ctx, sub, notificationType, payload, err)
			d.metrics.IncNotificationFailed(typeName, "rate_limiter")
			return false
		}
	}

	sendStart := d.now()
	_, sendErr := d.transport.Send(ctx, sub, payload)
	d.metrics.ObserveSendDuration(typeName, d.now().Sub(sendStart))

	d.recordAttempt(ctx, sub, notificationType, payload, sendErr)

	if sendErr == nil {
		d.metrics.IncNotificationSent(typeName)
		return true
	}

	d.metrics.IncNotificationFailed(typeName, failureClassName(sendErr))

	if push.IsExpired(sendErr) {
		if err := d.subscriptions.Deactivate(ctx, sub.ID); err != nil {
			d.logger.Error("failed to deactivate expired subscription",
				zap.String("subscriptionId", sub.ID),
				zap.Error(err),
			)
		} else {
			d.logger.Info("deactivated expired subscription",
				zap.String("subscriptionId", sub.ID),
				zap.String("userId", sub.UserID),
			)
			d.metrics.IncSubscriptionDeactivated()
		}
	}

	return false
}

func (d *Dispatcher) recordAttempt(ctx context.Context, sub domain.Subscription, notificationType domain.NotificationType, payload domain.Payload, sendErr error) {
	userID := sub.UserID
	entry := &domain.NotificationLog{
		ID:               uuid.NewString(),
		UserID:           &userID,
		NotificationType: notificationType,
		Title:            payload.Title,
		Body:             payload.Body,
		URL:              payload.URL,
		Status:           domain.LogStatusSent,
		Metadata:         payload.Data,
		SentAt:           d.now().UTC(),
	}

	if sendErr != nil {
		message := sendErr.Error()
		entry.Status = domain.LogStatusFailed
		entry.ErrorMessage = &message
	}

	if err := d.logs.Create(ctx, entry); err != nil {
		d.logger.Warn("failed to write notification log",
			zap.String("subscriptionId", sub.ID),
			zap.String("notificationType", notificationType.String()),
			zap.Error(err),
		)
	}
}

func failureClassName(err error) string {
	switch {
	case push.IsExpired(err):
		return "expired"
	case push.IsRateLimited(err):
		return "rate_limited"
	default:
		return "transient"
	}
}

package cohort

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/observability"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
)

// Resolver turns cohort identifiers into user audiences and audiences into
// deliverable subscriptions.
type Resolver struct {
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	preferences   repository.PreferenceRepository
	logger        *zap.Logger
	metrics       *observability.Metrics
}

func NewResolver(
	users repository.UserRepository,
	subscriptions repository.SubscriptionRepository,
	preferences repository.PreferenceRepository,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		users:         users,
		subscriptions: subscriptions,
		preferences:   preferences,
		logger:        logger,
		metrics:       metrics,
	}
}

// UsersInCohort resolves one cohort identifier to the user ids in it. An
// unparseable identifier resolves to an empty audience with a warning, never
// an error: a malformed cohort on an event must not break dispatch for the
// rest of the audience.
func (r *Resolver) UsersInCohort(ctx context.Context, identifier string) ([]string, error) {
	parsed, ok := domain.ParseCohort(identifier)
	if !ok {
		r.logger.Warn("unparseable cohort identifier, resolving to empty audience",
			zap.String("identifier", identifier),
		)
		r.metrics.IncCohortParseFailure()
		return nil, nil
	}

	ids, err := r.users.UserIDsByCohort(ctx, parsed.University, parsed.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cohort %q: %w", parsed.String(), err)
	}

	return ids, nil
}

// UsersInCohorts resolves multiple identifiers and returns the deduplicated
// union, preserving first-seen order.
func (r *Resolver) UsersInCohorts(ctx context.Context, identifiers []string) ([]string, error) {
	seen := make(map[string]struct{})
	var union []string

	for _, identifier := range identifiers {
		ids, err := r.UsersInCohort(ctx, identifier)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}

	return union, nil
}

// ActiveSubscriptionsFor returns the active subscriptions for a user set. An
// empty user set short-circuits without touching the database.
func (r *Resolver) ActiveSubscriptionsFor(ctx context.Context, userIDs []string) ([]domain.Subscription, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return r.subscriptions.GetActiveByUserIDs(ctx, userIDs)
}

// FilterByPreference drops subscriptions whose owner opted out of the category
// governing the notification type. Types with no governing category pass
// everything through. Users without a preference row are kept: the filter
// fails open.
func (r *Resolver) FilterByPreference(ctx context.Context, subscriptions []domain.Subscription, notificationType domain.NotificationType) ([]domain.Subscription, error) {
	if len(subscriptions) == 0 {
		return nil, nil
	}

	category, governed := domain.CategoryForType(notificationType)
	if !governed {
		return subscriptions, nil
	}

	userIDs := make([]string, 0, len(subscriptions))
	seen := make(map[string]struct{}, len(subscriptions))
	for _, sub := range subscriptions {
		if _, ok := seen[sub.UserID]; ok {
			continue
		}
		seen[sub.UserID] = struct{}{}
		userIDs = append(userIDs, sub.UserID)
	}

	preferences, err := r.preferences.GetByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	kept := make([]domain.Subscription, 0, len(subscriptions))
	for _, sub := range subscriptions {
		preference := preferences[sub.UserID]
		if preference == nil {
			r.metrics.IncPreferenceDefaultApplied()
		}
		if preference.Allows(category) {
			kept = append(kept, sub)
		}
	}

	return kept, nil
}

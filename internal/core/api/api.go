// Package api implements the JSON HTTP surface of the dynamic-logic service.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/helioscrm/dynlogic/internal/core/metrics"
	"github.com/helioscrm/dynlogic/internal/logic"
	"github.com/helioscrm/dynlogic/internal/metadata"
	"github.com/helioscrm/dynlogic/internal/types"
)

// RuleSetStore is the persistence surface the API needs. Implemented by
// *metadata.Store; a stub satisfies it in handler tests.
type RuleSetStore interface {
	Get(ctx context.Context, entityType types.EntityType) (*metadata.StoredRuleSet, error)
	Put(ctx context.Context, entityType types.EntityType, rs *types.RuleSet) (types.Revision, error)
	Delete(ctx context.Context, entityType types.EntityType) error
	List(ctx context.Context) ([]metadata.RuleSetInfo, error)
}

// Service holds the dependencies shared by all handlers.
type Service struct {
	resolver *logic.Resolver
	store    RuleSetStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
	policy   types.ValidationPolicy
}

// NewService creates the handler set. All dependencies are required except
// metrics, which may be nil in one-shot CLI use.
func NewService(resolver *logic.Resolver, store RuleSetStore, m *metrics.Metrics, logger *slog.Logger, policy types.ValidationPolicy) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver: resolver,
		store:    store,
		metrics:  m,
		logger:   logger,
		policy:   policy,
	}
}

func (s *Service) observeResolve(entityType types.EntityType, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.Resolutions.WithLabelValues(string(entityType)).Inc()
	s.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
}

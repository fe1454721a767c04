package ports

import (
	"context"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
)

// IndicatorProvider is a threat feed that yields IOC indicators.
type IndicatorProvider interface {
	FetchIndicators(ctx context.Context) ([]domain.Indicator, error)
	Name() string
}

// VulnerabilityProvider is a feed that yields vulnerability records.
type VulnerabilityProvider interface {
	FetchVulnerabilities(ctx context.Context) ([]domain.Vulnerability, error)
	Name() string
}

// EntityRepository persists the four entity kinds the STIX converter
// understands. Save methods upsert and keep stix_id stable across calls.
type EntityRepository interface {
	SaveIndicators(ctx context.Context, indicators []domain.Indicator) error
	SaveThreats(ctx context.Context, threats []domain.Threat) error
	SaveThreatActors(ctx context.Context, actors []domain.ThreatActor) error
	SaveVulnerabilities(ctx context.Context, vulns []domain.Vulnerability) error

	FindIndicatorByValue(ctx context.Context, value string) (*domain.Indicator, error)
	FindIndicatorsSince(ctx context.Context, since time.Time, limit int) ([]domain.Indicator, error)
}

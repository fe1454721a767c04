package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
	"github.com/black-cross/blackcross/internal/core/ports"
	"github.com/black-cross/blackcross/internal/stix"
)

// STIXFeedExporter serves recent indicators as a STIX 2.1 bundle for
// consumption by MISP, OpenCTI and SIEM pollers.
type STIXFeedExporter struct {
	repo ports.EntityRepository
}

func NewSTIXFeedExporter(repo ports.EntityRepository) *STIXFeedExporter {
	return &STIXFeedExporter{repo: repo}
}

// Export generates an indented STIX bundle of indicators updated since the
// given time. A zero time defaults to the last 24 hours.
func (e *STIXFeedExporter) Export(ctx context.Context, since time.Time) (string, error) {
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	// Limit to 10000 entries per pull
	indicators, err := e.repo.FindIndicatorsSince(ctx, since, 10000)
	if err != nil {
		return "", fmt.Errorf("failed to fetch indicators: %w", err)
	}

	for i := range indicators {
		if indicators[i].Confidence == 0 {
			indicators[i].Confidence = domain.ScoreIndicator(indicators[i])
		}
	}

	bundle := stix.ExportBundle(stix.ExportInput{Indicators: indicators})

	jsonData, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal STIX bundle: %w", err)
	}

	return string(jsonData), nil
}

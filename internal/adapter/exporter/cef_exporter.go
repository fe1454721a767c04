package exporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
	"github.com/black-cross/blackcross/internal/core/ports"
)

// CEFExporter serves recent indicators in Common Event Format for SIEMs
// that do not speak STIX.
type CEFExporter struct {
	repo ports.EntityRepository
}

func NewCEFExporter(repo ports.EntityRepository) *CEFExporter {
	return &CEFExporter{repo: repo}
}

// Export generates a CEF-formatted indicator feed, one line per indicator.
// Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func (e *CEFExporter) Export(ctx context.Context, since time.Time) (string, error) {
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	indicators, err := e.repo.FindIndicatorsSince(ctx, since, 10000)
	if err != nil {
		return "", fmt.Errorf("failed to fetch indicators: %w", err)
	}

	var output strings.Builder

	for _, ind := range indicators {
		output.WriteString(formatCEF(ind))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func formatCEF(ind domain.Indicator) string {
	vendor := "BlackCross"
	product := "ThreatIntel"
	version := "1.0"
	signatureID := string(ind.Type)
	name := ind.Name
	if name == "" {
		name = fmt.Sprintf("%s indicator", strings.ToUpper(string(ind.Type)))
	}

	confidence := domain.ScoreIndicator(ind)
	severity := cefSeverity(confidence)

	firstSeen := time.Now()
	if ind.ValidFrom != nil {
		firstSeen = *ind.ValidFrom
	}

	extensions := []string{
		fmt.Sprintf("src=%s", escapeCEF(ind.Value)),
		"cn1Label=ConfidenceScore",
		fmt.Sprintf("cn1=%d", confidence),
		"cs1Label=Source",
		fmt.Sprintf("cs1=%s", escapeCEF(ind.Source)),
		"cs2Label=Labels",
		fmt.Sprintf("cs2=%s", escapeCEF(strings.Join(ind.Labels, ","))),
		fmt.Sprintf("rt=%d", firstSeen.Unix()*1000), // milliseconds
	}

	return fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
		vendor, product, version, signatureID, escapeCEF(name), severity, strings.Join(extensions, " "))
}

// cefSeverity maps confidence (0-100) to CEF severity (0-10).
func cefSeverity(confidence int) int {
	switch {
	case confidence >= 90:
		return 10
	case confidence >= 80:
		return 8
	case confidence >= 70:
		return 6
	case confidence >= 60:
		return 4
	default:
		return 2
	}
}

func escapeCEF(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "=", "\\=")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}

package provider

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
)

// BlocklistProvider ingests plaintext one-value-per-line IP blocklists
// (feodo tracker, CINS army and similar feeds).
type BlocklistProvider struct {
	client       *http.Client
	url          string
	providerName string
	threatLabel  string
}

func NewBlocklistProvider(client *http.Client, providerName, url, threatLabel string) *BlocklistProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &BlocklistProvider{
		client:       client,
		providerName: providerName,
		url:          url,
		threatLabel:  threatLabel,
	}
}

func (p *BlocklistProvider) Name() string {
	return p.providerName
}

func (p *BlocklistProvider) FetchIndicators(ctx context.Context) ([]domain.Indicator, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch blocklist from %s: %s", p.url, resp.Status)
	}

	now := time.Now()
	var indicators []domain.Indicator

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		// Strip trailing port or inline comment
		if idx := strings.Index(line, ":"); idx != -1 {
			line = line[:idx]
		}
		if idx := strings.Index(line, "#"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
		}

		obsType := domain.DetectObservableType(line)
		if obsType != domain.IPv4 && obsType != domain.IPv6 {
			continue
		}

		indicators = append(indicators, domain.Indicator{
			Name:      fmt.Sprintf("%s blocklist entry", p.providerName),
			Type:      obsType,
			Value:     domain.NormalizeValue(line, obsType),
			Labels:    []string{"blocklist", p.threatLabel},
			Source:    p.providerName,
			ValidFrom: &now,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return indicators, nil
}

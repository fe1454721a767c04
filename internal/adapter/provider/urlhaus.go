package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
)

const urlHausCSV = "https://urlhaus.abuse.ch/downloads/csv_recent/"

// URLHausProvider ingests the abuse.ch URLHaus recent-URL feed as indicators.
type URLHausProvider struct {
	client *http.Client
	url    string
}

func NewURLHausProvider(client *http.Client) *URLHausProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &URLHausProvider{client: client, url: urlHausCSV}
}

func (p *URLHausProvider) Name() string {
	return "abusech-urlhaus"
}

func (p *URLHausProvider) FetchIndicators(ctx context.Context) ([]domain.Indicator, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch urlhaus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	var indicators []domain.Indicator

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv line: %w", err)
		}
		// 0: id, 1: dateadded, 2: url, 3: url_status, 4: last_online,
		// 5: threat, 6: tags, 7: urlhaus_link, 8: reporter
		if len(record) < 7 {
			continue
		}

		firstSeen, _ := time.Parse("2006-01-02 15:04:05", record[1])
		labels := append(strings.Split(record[6], ","), record[5])
		value := domain.NormalizeValue(record[2], domain.URL)

		indicators = append(indicators, domain.Indicator{
			Name:      fmt.Sprintf("URLHaus: %s", record[5]),
			Type:      domain.URL,
			Value:     value,
			Labels:    labels,
			Source:    p.Name(),
			ValidFrom: &firstSeen,
		})

		// Record the embedded host as its own indicator for narrower matching
		if host, hostType := domain.ExtractHost(value); host != "" {
			indicators = append(indicators, domain.Indicator{
				Name:      fmt.Sprintf("URLHaus: %s (host)", record[5]),
				Type:      hostType,
				Value:     domain.NormalizeValue(host, hostType),
				Labels:    append([]string{"extracted-from-url"}, labels...),
				Source:    p.Name(),
				ValidFrom: &firstSeen,
			})
		}
	}

	return indicators, nil
}

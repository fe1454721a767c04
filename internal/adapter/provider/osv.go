package provider

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
)

const osvBaseURL = "https://osv-vulnerabilities.storage.googleapis.com"

// OSVProvider ingests the OSV vulnerability dump for one ecosystem and maps
// entries with CVE aliases to vulnerability records.
type OSVProvider struct {
	client    *http.Client
	ecosystem string
	baseURL   string
}

func NewOSVProvider(client *http.Client, ecosystem string) *OSVProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &OSVProvider{
		client:    client,
		ecosystem: ecosystem,
		baseURL:   osvBaseURL,
	}
}

func (p *OSVProvider) Name() string {
	return fmt.Sprintf("google-osv-%s", strings.ToLower(p.ecosystem))
}

type osvEntry struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Details  string    `json:"details"`
	Aliases  []string  `json:"aliases"`
	Modified time.Time `json:"modified"`
	Affected []struct {
		Package struct {
			Name string `json:"name"`
		} `json:"package"`
	} `json:"affected"`
}

func (p *OSVProvider) FetchVulnerabilities(ctx context.Context) ([]domain.Vulnerability, error) {
	url := fmt.Sprintf("%s/%s/all.zip", p.baseURL, p.ecosystem)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// The dump is a few MB, small enough to buffer
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	zipReader, err := zip.NewReader(bytes.NewReader(bodyBytes), int64(len(bodyBytes)))
	if err != nil {
		return nil, err
	}

	var vulns []domain.Vulnerability

	for _, file := range zipReader.File {
		if !strings.HasSuffix(file.Name, ".json") {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			continue
		}

		var entry osvEntry
		if err := json.NewDecoder(rc).Decode(&entry); err == nil {
			if v, ok := p.toVulnerability(entry); ok {
				vulns = append(vulns, v)
			}
		}
		rc.Close()
	}

	return vulns, nil
}

func (p *OSVProvider) toVulnerability(entry osvEntry) (domain.Vulnerability, bool) {
	if entry.ID == "" {
		return domain.Vulnerability{}, false
	}

	description := entry.Summary
	if description == "" {
		description = entry.Details
	}

	labels := []string{"osv", strings.ToLower(p.ecosystem)}
	for _, affected := range entry.Affected {
		if affected.Package.Name != "" {
			labels = append(labels, affected.Package.Name)
		}
	}

	modified := entry.Modified

	return domain.Vulnerability{
		Name:        entry.ID,
		Description: description,
		CVEID:       firstCVE(entry.Aliases),
		Labels:      labels,
		UpdatedAt:   &modified,
	}, true
}

func firstCVE(aliases []string) string {
	for _, alias := range aliases {
		if strings.HasPrefix(alias, "CVE-") {
			return alias
		}
	}
	return ""
}

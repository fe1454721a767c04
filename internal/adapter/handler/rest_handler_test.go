package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
)

// memoryRepository is an in-memory EntityRepository for handler tests.
type memoryRepository struct {
	indicators      []domain.Indicator
	threats         []domain.Threat
	threatActors    []domain.ThreatActor
	vulnerabilities []domain.Vulnerability
	saveErr         error
}

func (m *memoryRepository) SaveIndicators(_ context.Context, indicators []domain.Indicator) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.indicators = append(m.indicators, indicators...)
	return nil
}

func (m *memoryRepository) SaveThreats(_ context.Context, threats []domain.Threat) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.threats = append(m.threats, threats...)
	return nil
}

func (m *memoryRepository) SaveThreatActors(_ context.Context, actors []domain.ThreatActor) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.threatActors = append(m.threatActors, actors...)
	return nil
}

func (m *memoryRepository) SaveVulnerabilities(_ context.Context, vulns []domain.Vulnerability) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.vulnerabilities = append(m.vulnerabilities, vulns...)
	return nil
}

func (m *memoryRepository) FindIndicatorByValue(_ context.Context, value string) (*domain.Indicator, error) {
	for i := range m.indicators {
		if m.indicators[i].Value == value {
			return &m.indicators[i], nil
		}
	}
	return nil, fmt.Errorf("indicator not found: %s", value)
}

func (m *memoryRepository) FindIndicatorsSince(_ context.Context, since time.Time, limit int) ([]domain.Indicator, error) {
	var out []domain.Indicator
	for _, ind := range m.indicators {
		if ind.UpdatedAt != nil && ind.UpdatedAt.Before(since) {
			continue
		}
		out = append(out, ind)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newTestHandler(repo *memoryRepository) *RestHandler {
	return NewRestHandler(repo, nil, nil)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&memoryRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want 'healthy'", body["status"])
	}
}

func TestExportBundle(t *testing.T) {
	h := newTestHandler(&memoryRepository{})

	payload := `{
		"indicators": [
			{"name": "first", "type": "ipv4-addr", "value": "203.0.113.1"},
			{"name": "second", "type": "ipv4-addr", "value": "203.0.113.2"}
		],
		"vulnerabilities": [{"cve_id": "CVE-2024-0001"}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stix/export", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ExportBundle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body)
	}

	var bundle struct {
		Type    string `json:"type"`
		ID      string `json:"id"`
		Objects []struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"objects"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("response is not a bundle: %v", err)
	}

	if bundle.Type != "bundle" || !strings.HasPrefix(bundle.ID, "bundle--") {
		t.Errorf("envelope = {%s, %s}, want a STIX bundle", bundle.Type, bundle.ID)
	}
	if len(bundle.Objects) != 3 {
		t.Fatalf("objects = %d, want 3", len(bundle.Objects))
	}
	if bundle.Objects[0].Name != "first" || bundle.Objects[1].Name != "second" {
		t.Errorf("indicator order not preserved: %+v", bundle.Objects)
	}
	if bundle.Objects[2].Type != "vulnerability" {
		t.Errorf("objects[2].type = %q, want 'vulnerability'", bundle.Objects[2].Type)
	}
}

func TestExportBundle_BadJSON(t *testing.T) {
	h := newTestHandler(&memoryRepository{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stix/export", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ExportBundle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestImportBundle(t *testing.T) {
	repo := &memoryRepository{}
	h := newTestHandler(repo)

	payload := `{
		"type": "bundle",
		"id": "bundle--77777777-7777-4777-8777-777777777777",
		"objects": [
			{"type": "indicator", "spec_version": "2.1", "id": "indicator--88888888-8888-4888-8888-888888888888",
			 "created": "2024-01-01T00:00:00.000Z", "modified": "2024-01-01T00:00:00.000Z",
			 "name": "beacon", "indicator_types": ["malicious-activity"],
			 "pattern": "[ipv4-addr:value = '203.0.113.9']", "pattern_type": "stix",
			 "valid_from": "2024-01-01T00:00:00.000Z"},
			{"type": "malware", "spec_version": "2.1", "id": "malware--99999999-9999-4999-8999-999999999999",
			 "created": "2024-01-01T00:00:00.000Z", "modified": "2024-01-01T00:00:00.000Z",
			 "name": "Emotet", "malware_types": ["trojan"], "is_family": true},
			{"type": "campaign", "spec_version": "2.1", "id": "campaign--aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa",
			 "name": "Op Dust"}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stix/import", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ImportBundle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body)
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if _, ok := result["dropped"]; ok {
		t.Error("dropped objects leaked into the response body")
	}

	if len(repo.indicators) != 1 || repo.indicators[0].Value != "203.0.113.9" {
		t.Errorf("persisted indicators = %+v, want the imported beacon", repo.indicators)
	}
	if len(repo.threats) != 1 || repo.threats[0].Name != "Emotet" {
		t.Errorf("persisted threats = %+v, want Emotet", repo.threats)
	}
	if len(repo.threatActors) != 0 || len(repo.vulnerabilities) != 0 {
		t.Error("campaign leaked into persisted entities")
	}
}

func TestImportBundle_PersistFailure(t *testing.T) {
	repo := &memoryRepository{saveErr: fmt.Errorf("connection refused")}
	h := newTestHandler(repo)

	payload := `{
		"type": "bundle",
		"id": "bundle--77777777-7777-4777-8777-777777777777",
		"objects": [
			{"type": "indicator", "spec_version": "2.1", "id": "indicator--88888888-8888-4888-8888-888888888888",
			 "name": "beacon", "pattern": "[ipv4-addr:value = '203.0.113.9']", "pattern_type": "stix"}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stix/import", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ImportBundle(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestConvertEntity(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantType string
	}{
		{"Indicator", `{"kind": "indicator", "entity": {"name": "x", "type": "ipv4-addr", "value": "1.2.3.4"}}`, "indicator"},
		{"Threat", `{"kind": "threat", "entity": {"name": "Emotet"}}`, "malware"},
		{"Threat actor", `{"kind": "threat_actor", "entity": {"name": "FIN7"}}`, "threat-actor"},
		{"Vulnerability", `{"kind": "vulnerability", "entity": {"cve_id": "CVE-2024-0001"}}`, "vulnerability"},
	}

	h := newTestHandler(&memoryRepository{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/stix/convert", strings.NewReader(tt.payload))
			rec := httptest.NewRecorder()
			h.ConvertEntity(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body)
			}

			var obj struct {
				Type string `json:"type"`
				ID   string `json:"id"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &obj); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if obj.Type != tt.wantType {
				t.Errorf("type = %q, want %q", obj.Type, tt.wantType)
			}
			if !strings.HasPrefix(obj.ID, tt.wantType+"--") {
				t.Errorf("id = %q, want %q prefix", obj.ID, tt.wantType+"--")
			}
		})
	}
}

func TestConvertEntity_UnsupportedKind(t *testing.T) {
	h := newTestHandler(&memoryRepository{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stix/convert",
		strings.NewReader(`{"kind": "campaign", "entity": {}}`))
	rec := httptest.NewRecorder()
	h.ConvertEntity(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestParsePattern(t *testing.T) {
	h := newTestHandler(&memoryRepository{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stix/pattern/parse",
		strings.NewReader(`{"pattern": "[domain-name:value = 'evil.example.com']"}`))
	rec := httptest.NewRecorder()
	h.ParsePattern(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var match struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &match); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if match.Type != "domain-name" || match.Value != "evil.example.com" {
		t.Errorf("match = %+v, want {domain-name, evil.example.com}", match)
	}
}

func TestParsePattern_UnparseableReturnsNull(t *testing.T) {
	h := newTestHandler(&memoryRepository{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stix/pattern/parse",
		strings.NewReader(`{"pattern": "[a:value = 'x'] AND [b:value = 'y']"}`))
	rec := httptest.NewRecorder()
	h.ParsePattern(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "null" {
		t.Errorf("body = %q, want JSON null", body)
	}
}

func TestCheckIndicator(t *testing.T) {
	repo := &memoryRepository{
		indicators: []domain.Indicator{
			{Name: "known", Type: domain.IPv4, Value: "203.0.113.5", Source: "abusech-urlhaus"},
		},
	}
	h := newTestHandler(repo)

	t.Run("Known value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators/check?value=203.0.113.5", nil)
		rec := httptest.NewRecorder()
		h.CheckIndicator(rec, req)

		var body struct {
			Exists     bool `json:"exists"`
			Confidence int  `json:"confidence"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if !body.Exists {
			t.Error("exists = false, want true")
		}
		if body.Confidence != 80 {
			t.Errorf("confidence = %d, want 80 for a trusted source", body.Confidence)
		}
	})

	t.Run("Unknown value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators/check?value=198.51.100.1", nil)
		rec := httptest.NewRecorder()
		h.CheckIndicator(rec, req)

		var body struct {
			Exists bool `json:"exists"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if body.Exists {
			t.Error("exists = true, want false")
		}
	})

	t.Run("Missing parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators/check", nil)
		rec := httptest.NewRecorder()
		h.CheckIndicator(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestGetFeed(t *testing.T) {
	now := time.Now().UTC()
	repo := &memoryRepository{
		indicators: []domain.Indicator{
			{Name: "recent", Type: domain.IPv4, Value: "203.0.113.5", UpdatedAt: &now},
		},
	}
	h := newTestHandler(repo)

	t.Run("STIX default", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators/feed", nil)
		rec := httptest.NewRecorder()
		h.GetFeed(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body)
		}
		if !bytes.Contains(rec.Body.Bytes(), []byte(`"type": "bundle"`)) &&
			!bytes.Contains(rec.Body.Bytes(), []byte(`"type":"bundle"`)) {
			t.Errorf("body does not look like a STIX bundle: %s", rec.Body)
		}
	})

	t.Run("CEF", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators/feed?format=cef", nil)
		rec := httptest.NewRecorder()
		h.GetFeed(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body)
		}
		if !strings.HasPrefix(rec.Body.String(), "CEF:0|BlackCross|") {
			t.Errorf("body does not start with a CEF header: %s", rec.Body)
		}
	})

	t.Run("Bad since", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators/feed?since=yesterday", nil)
		rec := httptest.NewRecorder()
		h.GetFeed(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("Bad format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators/feed?format=xml", nil)
		rec := httptest.NewRecorder()
		h.GetFeed(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/black-cross/blackcross/internal/adapter/exporter"
	"github.com/black-cross/blackcross/internal/adapter/notifier"
	"github.com/black-cross/blackcross/internal/adapter/taxii"
	"github.com/black-cross/blackcross/internal/core/domain"
	"github.com/black-cross/blackcross/internal/core/ports"
	"github.com/black-cross/blackcross/internal/metrics"
	"github.com/black-cross/blackcross/internal/stix"
)

// confidence at or above which imported indicators trigger a Slack alert
const notifyConfidenceThreshold = 85

type RestHandler struct {
	repo          ports.EntityRepository
	slackNotifier *notifier.SlackNotifier
	taxiiClient   *taxii.Client
	stixFeed      *exporter.STIXFeedExporter
	cefFeed       *exporter.CEFExporter
}

func NewRestHandler(repo ports.EntityRepository, slackNotifier *notifier.SlackNotifier, taxiiClient *taxii.Client) *RestHandler {
	return &RestHandler{
		repo:          repo,
		slackNotifier: slackNotifier,
		taxiiClient:   taxiiClient,
		stixFeed:      exporter.NewSTIXFeedExporter(repo),
		cefFeed:       exporter.NewCEFExporter(repo),
	}
}

// Health check endpoint
func (h *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "blackcross-api",
	}
	writeJSON(w, http.StatusOK, response)
}

// ExportBundle converts the posted entity collections to a STIX bundle.
func (h *RestHandler) ExportBundle(w http.ResponseWriter, r *http.Request) {
	var input stix.ExportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		metrics.RecordExport("error")
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	timer := metrics.StartTimer("export")
	bundle := stix.ExportBundle(input)
	timer.ObserveDuration()

	for _, obj := range bundle.Objects {
		metrics.RecordObject(obj.ObjectType(), "export")
	}
	metrics.RecordExport("success")

	// Optionally push the bundle to the configured TAXII collection
	if h.taxiiClient != nil && r.URL.Query().Get("push") == "true" {
		if err := h.taxiiClient.PushBundle(r.Context(), bundle); err != nil {
			log.Printf("⚠️  TAXII push failed for bundle %s: %v", bundle.ID, err)
		} else {
			log.Printf("✅ Bundle %s pushed to TAXII collection", bundle.ID)
		}
	}

	writeJSON(w, http.StatusOK, bundle)
}

// ImportBundle decomposes a posted STIX bundle into internal entities and
// persists them.
func (h *RestHandler) ImportBundle(w http.ResponseWriter, r *http.Request) {
	var bundle stix.Bundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		metrics.RecordImport("error")
		writeError(w, http.StatusBadRequest, "invalid STIX bundle")
		return
	}

	timer := metrics.StartTimer("import")
	result := stix.ImportBundle(bundle)
	timer.ObserveDuration()

	for _, obj := range result.Dropped {
		log.Printf("⚠️  Dropping unsupported STIX object %s (%s)", obj.ObjectID(), obj.ObjectType())
		metrics.RecordDropped(obj.ObjectType())
	}

	if err := h.persistImport(r, result); err != nil {
		metrics.RecordImport("error")
		log.Printf("❌ Failed to persist imported bundle %s: %v", bundle.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to persist imported entities")
		return
	}
	metrics.RecordImport("success")

	for _, obj := range bundle.Objects {
		metrics.RecordObject(obj.ObjectType(), "import")
	}

	h.notifyImport(bundle, result)

	writeJSON(w, http.StatusOK, result)
}

func (h *RestHandler) persistImport(r *http.Request, result stix.ImportResult) error {
	if h.repo == nil {
		return nil
	}

	ctx := r.Context()

	if len(result.Indicators) > 0 {
		if err := h.repo.SaveIndicators(ctx, result.Indicators); err != nil {
			return err
		}
	}
	if len(result.Threats) > 0 {
		if err := h.repo.SaveThreats(ctx, result.Threats); err != nil {
			return err
		}
	}
	if len(result.ThreatActors) > 0 {
		if err := h.repo.SaveThreatActors(ctx, result.ThreatActors); err != nil {
			return err
		}
	}
	if len(result.Vulnerabilities) > 0 {
		if err := h.repo.SaveVulnerabilities(ctx, result.Vulnerabilities); err != nil {
			return err
		}
	}

	return nil
}

func (h *RestHandler) notifyImport(bundle stix.Bundle, result stix.ImportResult) {
	if h.slackNotifier == nil {
		return
	}

	summary := notifier.ImportSummary{
		BundleID:        bundle.ID,
		Indicators:      len(result.Indicators),
		Threats:         len(result.Threats),
		ThreatActors:    len(result.ThreatActors),
		Vulnerabilities: len(result.Vulnerabilities),
		Relationships:   len(result.Relationships),
		Dropped:         len(result.Dropped),
	}
	if err := h.slackNotifier.NotifyBundleImported(summary); err != nil {
		log.Printf("⚠️  Failed to send Slack notification: %v", err)
	}

	for _, ind := range result.Indicators {
		if domain.ScoreIndicator(ind) >= notifyConfidenceThreshold {
			if err := h.slackNotifier.NotifyHighConfidenceIndicator(ind); err != nil {
				log.Printf("⚠️  Failed to send Slack notification: %v", err)
			}
		}
	}
}

// convertRequest carries one entity of the declared kind.
type convertRequest struct {
	Kind   string          `json:"kind"`
	Entity json.RawMessage `json:"entity"`
}

// ConvertEntity converts a single internal entity to its STIX counterpart.
func (h *RestHandler) ConvertEntity(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	var obj stix.Object

	switch req.Kind {
	case "indicator":
		var e domain.Indicator
		if err := json.Unmarshal(req.Entity, &e); err != nil {
			writeError(w, http.StatusBadRequest, "invalid indicator entity")
			return
		}
		obj = stix.IndicatorToSTIX(e)

	case "threat":
		var e domain.Threat
		if err := json.Unmarshal(req.Entity, &e); err != nil {
			writeError(w, http.StatusBadRequest, "invalid threat entity")
			return
		}
		obj = stix.ThreatToSTIX(e)

	case "threat_actor":
		var e domain.ThreatActor
		if err := json.Unmarshal(req.Entity, &e); err != nil {
			writeError(w, http.StatusBadRequest, "invalid threat actor entity")
			return
		}
		obj = stix.ThreatActorToSTIX(e)

	case "vulnerability":
		var e domain.Vulnerability
		if err := json.Unmarshal(req.Entity, &e); err != nil {
			writeError(w, http.StatusBadRequest, "invalid vulnerability entity")
			return
		}
		obj = stix.VulnerabilityToSTIX(e)

	default:
		writeError(w, http.StatusBadRequest, "unsupported kind (use 'indicator', 'threat', 'threat_actor' or 'vulnerability')")
		return
	}

	metrics.RecordObject(obj.ObjectType(), "export")
	writeJSON(w, http.StatusOK, obj)
}

// ParsePattern extracts {type, value} from a simple STIX comparison pattern.
// An unparseable pattern is answered with a JSON null, not an error.
func (h *RestHandler) ParsePattern(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pattern string `json:"pattern"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	writeJSON(w, http.StatusOK, stix.ParsePattern(req.Pattern))
}

// CheckIndicator looks up a single observable value.
func (h *RestHandler) CheckIndicator(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	if value == "" {
		writeError(w, http.StatusBadRequest, "missing 'value' parameter")
		return
	}

	ind, err := h.repo.FindIndicatorByValue(r.Context(), value)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"exists": false,
			"value":  value,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exists":     true,
		"indicator":  ind,
		"confidence": domain.ScoreIndicator(*ind),
	})
}

// GetFeed serves recent indicators as a STIX bundle or CEF lines.
func (h *RestHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	since := r.URL.Query().Get("since") // e.g. "24h", "168h"

	var sinceTime time.Time
	if since != "" {
		duration, err := time.ParseDuration(since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'since' parameter (use format like '24h')")
			return
		}
		sinceTime = time.Now().Add(-duration)
	}

	switch format {
	case "stix", "":
		data, err := h.stixFeed.Export(r.Context(), sinceTime)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to export STIX feed")
			return
		}
		metrics.RecordFeedExport("stix")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(data)); err != nil {
			log.Printf("Error writing STIX feed response: %v", err)
		}

	case "cef":
		data, err := h.cefFeed.Export(r.Context(), sinceTime)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to export CEF feed")
			return
		}
		metrics.RecordFeedExport("cef")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(data)); err != nil {
			log.Printf("Error writing CEF feed response: %v", err)
		}

	default:
		writeError(w, http.StatusBadRequest, "unsupported format (use 'stix' or 'cef')")
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

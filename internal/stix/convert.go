package stix

import (
	"fmt"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
)

// Default classifications applied when an entity carries none of its own.
var (
	defaultIndicatorTypes   = []string{"malicious-activity"}
	defaultMalwareTypes     = []string{"trojan"}
	defaultThreatActorTypes = []string{"criminal"}
)

const cveURLFormat = "https://cve.mitre.org/cgi-bin/cvename.cgi?name=%s"

// IndicatorToSTIX converts an internal indicator to a STIX Indicator object.
// An existing StixID is reused verbatim; created and modified default to the
// same clock reading so a freshly converted entity has created == modified.
func IndicatorToSTIX(e domain.Indicator) *Indicator {
	now := Timestamp()

	pattern := e.Pattern
	if pattern == "" {
		pattern = fmt.Sprintf("[%s:value = '%s']", e.Type, e.Value)
	}

	types := e.IndicatorTypes
	if len(types) == 0 {
		types = defaultIndicatorTypes
	}

	return &Indicator{
		Type:           TypeIndicator,
		SpecVersion:    SpecVersion,
		ID:             ensureID(e.StixID, TypeIndicator),
		Created:        stampOr(e.CreatedAt, now),
		Modified:       stampOr(e.UpdatedAt, now),
		Name:           e.Name,
		Description:    e.Description,
		IndicatorTypes: types,
		Pattern:        pattern,
		PatternType:    "stix",
		ValidFrom:      stampOr(e.ValidFrom, now),
		ValidUntil:     stamp(e.ValidUntil),
		Confidence:     e.Confidence,
		Labels:         e.Labels,
	}
}

// ThreatToSTIX converts an internal threat record to a STIX Malware object.
func ThreatToSTIX(e domain.Threat) *Malware {
	now := Timestamp()

	types := e.MalwareTypes
	if len(types) == 0 {
		types = defaultMalwareTypes
	}

	return &Malware{
		Type:         TypeMalware,
		SpecVersion:  SpecVersion,
		ID:           ensureID(e.StixID, TypeMalware),
		Created:      stampOr(e.CreatedAt, now),
		Modified:     stampOr(e.UpdatedAt, now),
		Name:         e.Name,
		Description:  e.Description,
		MalwareTypes: types,
		IsFamily:     e.IsFamily,
		Aliases:      e.Aliases,
		FirstSeen:    stamp(e.FirstSeen),
		LastSeen:     stamp(e.LastSeen),
		Labels:       e.Labels,
	}
}

// ThreatActorToSTIX converts an internal actor profile to a STIX Threat-Actor object.
func ThreatActorToSTIX(e domain.ThreatActor) *ThreatActor {
	now := Timestamp()

	types := e.ActorTypes
	if len(types) == 0 {
		types = defaultThreatActorTypes
	}

	return &ThreatActor{
		Type:              TypeThreatActor,
		SpecVersion:       SpecVersion,
		ID:                ensureID(e.StixID, TypeThreatActor),
		Created:           stampOr(e.CreatedAt, now),
		Modified:          stampOr(e.UpdatedAt, now),
		Name:              e.Name,
		Description:       e.Description,
		ThreatActorTypes:  types,
		Aliases:           e.Aliases,
		FirstSeen:         stamp(e.FirstSeen),
		LastSeen:          stamp(e.LastSeen),
		Goals:             e.Goals,
		Sophistication:    e.Sophistication,
		ResourceLevel:     e.ResourceLevel,
		PrimaryMotivation: e.PrimaryMotivation,
		Labels:            e.Labels,
	}
}

// VulnerabilityToSTIX converts an internal vulnerability to a STIX
// Vulnerability object. The name falls back to the CVE id, and exactly one
// CVE external reference is emitted when a CVE id is present.
func VulnerabilityToSTIX(e domain.Vulnerability) *Vulnerability {
	now := Timestamp()

	name := e.Name
	if name == "" {
		name = e.CVEID
	}

	var refs []ExternalReference
	if e.CVEID != "" {
		refs = []ExternalReference{{
			SourceName: "cve",
			ExternalID: e.CVEID,
			URL:        fmt.Sprintf(cveURLFormat, e.CVEID),
		}}
	}

	return &Vulnerability{
		Type:               TypeVulnerability,
		SpecVersion:        SpecVersion,
		ID:                 ensureID(e.StixID, TypeVulnerability),
		Created:            stampOr(e.CreatedAt, now),
		Modified:           stampOr(e.UpdatedAt, now),
		Name:               name,
		Description:        e.Description,
		ExternalReferences: refs,
		Labels:             e.Labels,
	}
}

func ensureID(stixID, objectType string) string {
	if stixID != "" {
		return stixID
	}
	return NewID(objectType)
}

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(TimestampFormat)
}

func stampOr(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.UTC().Format(TimestampFormat)
}

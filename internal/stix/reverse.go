package stix

import (
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
)

// IndicatorFromSTIX materializes a STIX Indicator as an internal entity.
// The pattern is kept verbatim; when it matches the simple comparison form
// the observable type and value are extracted as well. An unparseable
// pattern is not an error.
func IndicatorFromSTIX(obj *Indicator) domain.Indicator {
	e := domain.Indicator{
		Name:           obj.Name,
		Description:    obj.Description,
		Pattern:        obj.Pattern,
		IndicatorTypes: obj.IndicatorTypes,
		Confidence:     obj.Confidence,
		Labels:         obj.Labels,
		ValidFrom:      parseStamp(obj.ValidFrom),
		ValidUntil:     parseStamp(obj.ValidUntil),
		StixID:         obj.ID,
		CreatedAt:      parseStamp(obj.Created),
		UpdatedAt:      parseStamp(obj.Modified),
	}

	if m := ParsePattern(obj.Pattern); m != nil {
		e.Type = domain.ObservableType(m.Type)
		e.Value = m.Value
	}

	return e
}

// ThreatFromSTIX materializes a STIX Malware object as an internal threat record.
func ThreatFromSTIX(obj *Malware) domain.Threat {
	return domain.Threat{
		Name:         obj.Name,
		Description:  obj.Description,
		MalwareTypes: obj.MalwareTypes,
		IsFamily:     obj.IsFamily,
		Aliases:      obj.Aliases,
		FirstSeen:    parseStamp(obj.FirstSeen),
		LastSeen:     parseStamp(obj.LastSeen),
		Labels:       obj.Labels,
		StixID:       obj.ID,
		CreatedAt:    parseStamp(obj.Created),
		UpdatedAt:    parseStamp(obj.Modified),
	}
}

// ThreatActorFromSTIX materializes a STIX Threat-Actor as an internal actor profile.
func ThreatActorFromSTIX(obj *ThreatActor) domain.ThreatActor {
	return domain.ThreatActor{
		Name:              obj.Name,
		Description:       obj.Description,
		ActorTypes:        obj.ThreatActorTypes,
		Aliases:           obj.Aliases,
		FirstSeen:         parseStamp(obj.FirstSeen),
		LastSeen:          parseStamp(obj.LastSeen),
		Goals:             obj.Goals,
		Sophistication:    obj.Sophistication,
		ResourceLevel:     obj.ResourceLevel,
		PrimaryMotivation: obj.PrimaryMotivation,
		Labels:            obj.Labels,
		StixID:            obj.ID,
		CreatedAt:         parseStamp(obj.Created),
		UpdatedAt:         parseStamp(obj.Modified),
	}
}

// VulnerabilityFromSTIX materializes a STIX Vulnerability as an internal
// entity, recovering the CVE id from the "cve" external reference if present.
func VulnerabilityFromSTIX(obj *Vulnerability) domain.Vulnerability {
	e := domain.Vulnerability{
		Name:        obj.Name,
		Description: obj.Description,
		Labels:      obj.Labels,
		StixID:      obj.ID,
		CreatedAt:   parseStamp(obj.Created),
		UpdatedAt:   parseStamp(obj.Modified),
	}

	for _, ref := range obj.ExternalReferences {
		if ref.SourceName == "cve" && ref.ExternalID != "" {
			e.CVEID = ref.ExternalID
			break
		}
	}

	return e
}

// parseStamp turns a STIX timestamp back into a time, or nil when the field
// is absent or not RFC 3339.
func parseStamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

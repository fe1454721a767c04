package stix

import "github.com/black-cross/blackcross/internal/core/domain"

// ExportInput is the set of entity collections to export. Any collection may
// be absent; an entirely empty input produces a bundle with zero objects.
type ExportInput struct {
	Indicators      []domain.Indicator     `json:"indicators,omitempty"`
	Threats         []domain.Threat        `json:"threats,omitempty"`
	ThreatActors    []domain.ThreatActor   `json:"threat_actors,omitempty"`
	Vulnerabilities []domain.Vulnerability `json:"vulnerabilities,omitempty"`
}

// ImportResult is a bundle decomposed back into internal collections.
// Relationships are passed through unmapped. Objects of unsupported kinds
// land in Dropped, which is never serialized: from the caller's point of
// view they vanish from the result, but the raw objects stay inspectable.
type ImportResult struct {
	Indicators      []domain.Indicator     `json:"indicators"`
	Threats         []domain.Threat        `json:"threats"`
	ThreatActors    []domain.ThreatActor   `json:"threat_actors"`
	Vulnerabilities []domain.Vulnerability `json:"vulnerabilities"`
	Relationships   []*Relationship        `json:"relationships"`
	Dropped         []Object               `json:"-"`
}

// NewBundle wraps the given objects in a freshly identified bundle. The
// object list is taken as-is: no deduplication, no reference validation.
func NewBundle(objects []Object) Bundle {
	if objects == nil {
		objects = []Object{}
	}
	return Bundle{
		Type:    TypeBundle,
		ID:      NewID(TypeBundle),
		Objects: objects,
	}
}

// ExportBundle maps every entity in the input to its STIX counterpart and
// assembles a bundle. Collections are visited in a fixed order (indicators,
// threats, threat actors, vulnerabilities) and input order is preserved
// within each.
func ExportBundle(input ExportInput) Bundle {
	size := len(input.Indicators) + len(input.Threats) +
		len(input.ThreatActors) + len(input.Vulnerabilities)
	objects := make([]Object, 0, size)

	for _, e := range input.Indicators {
		objects = append(objects, IndicatorToSTIX(e))
	}
	for _, e := range input.Threats {
		objects = append(objects, ThreatToSTIX(e))
	}
	for _, e := range input.ThreatActors {
		objects = append(objects, ThreatActorToSTIX(e))
	}
	for _, e := range input.Vulnerabilities {
		objects = append(objects, VulnerabilityToSTIX(e))
	}

	return NewBundle(objects)
}

// ImportBundle decomposes a bundle into internal entity collections in a
// single pass, preserving object order within each bucket.
func ImportBundle(bundle Bundle) ImportResult {
	result := ImportResult{
		Indicators:      []domain.Indicator{},
		Threats:         []domain.Threat{},
		ThreatActors:    []domain.ThreatActor{},
		Vulnerabilities: []domain.Vulnerability{},
		Relationships:   []*Relationship{},
	}

	for _, obj := range bundle.Objects {
		switch o := obj.(type) {
		case *Indicator:
			result.Indicators = append(result.Indicators, IndicatorFromSTIX(o))
		case *Malware:
			result.Threats = append(result.Threats, ThreatFromSTIX(o))
		case *ThreatActor:
			result.ThreatActors = append(result.ThreatActors, ThreatActorFromSTIX(o))
		case *Vulnerability:
			result.Vulnerabilities = append(result.Vulnerabilities, VulnerabilityFromSTIX(o))
		case *Relationship:
			result.Relationships = append(result.Relationships, o)
		default:
			result.Dropped = append(result.Dropped, obj)
		}
	}

	return result
}

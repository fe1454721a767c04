package stix

import (
	"testing"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
)

func indicatorFixture(obsType domain.ObservableType, value string) domain.Indicator {
	return domain.Indicator{
		Name:  "Test indicator",
		Type:  obsType,
		Value: value,
	}
}

func TestIndicatorToSTIX_Defaults(t *testing.T) {
	obj := IndicatorToSTIX(indicatorFixture(domain.IPv4, "203.0.113.5"))

	if obj.Type != "indicator" {
		t.Errorf("Type = %q, want 'indicator'", obj.Type)
	}
	if obj.SpecVersion != "2.1" {
		t.Errorf("SpecVersion = %q, want '2.1'", obj.SpecVersion)
	}
	if len(obj.IndicatorTypes) != 1 || obj.IndicatorTypes[0] != "malicious-activity" {
		t.Errorf("IndicatorTypes = %v, want [malicious-activity]", obj.IndicatorTypes)
	}
	if obj.PatternType != "stix" {
		t.Errorf("PatternType = %q, want 'stix'", obj.PatternType)
	}
	if obj.Pattern != "[ipv4-addr:value = '203.0.113.5']" {
		t.Errorf("Pattern = %q, want synthesized comparison", obj.Pattern)
	}
	if obj.ValidFrom == "" {
		t.Error("ValidFrom is empty, want defaulted timestamp")
	}
}

func TestIndicatorToSTIX_FreshEntityCreatedEqualsModified(t *testing.T) {
	obj := IndicatorToSTIX(indicatorFixture(domain.IPv4, "203.0.113.5"))

	if obj.Created != obj.Modified {
		t.Errorf("created = %q, modified = %q, want a single shared timestamp", obj.Created, obj.Modified)
	}
}

func TestIndicatorToSTIX_IdempotentIdentity(t *testing.T) {
	e := indicatorFixture(domain.IPv4, "203.0.113.5")
	e.StixID = "indicator--abc"

	first := IndicatorToSTIX(e)
	second := IndicatorToSTIX(e)

	if first.ID != "indicator--abc" || second.ID != "indicator--abc" {
		t.Errorf("ids = %q, %q, want both 'indicator--abc'", first.ID, second.ID)
	}
}

func TestIndicatorToSTIX_MintsDistinctIDs(t *testing.T) {
	e := indicatorFixture(domain.IPv4, "203.0.113.5")

	first := IndicatorToSTIX(e)
	second := IndicatorToSTIX(e)

	// without a stored stix_id, every call is a new object
	if first.ID == second.ID {
		t.Errorf("both conversions minted id %q, want distinct ids", first.ID)
	}
}

func TestIndicatorToSTIX_ExplicitFieldsPreserved(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2024, 6, 2, 12, 30, 0, 0, time.UTC)
	validFrom := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	e := domain.Indicator{
		Name:           "C2 beacon",
		Description:    "Cobalt Strike beacon callback",
		Pattern:        "[domain-name:value = 'c2.example.net']",
		IndicatorTypes: []string{"malicious-activity", "attribution"},
		Confidence:     90,
		Labels:         []string{"c2", "cobalt-strike"},
		ValidFrom:      &validFrom,
		CreatedAt:      &createdAt,
		UpdatedAt:      &updatedAt,
	}

	obj := IndicatorToSTIX(e)

	if obj.Pattern != e.Pattern {
		t.Errorf("Pattern = %q, want explicit pattern kept", obj.Pattern)
	}
	if obj.Created != "2024-03-01T10:00:00.000Z" {
		t.Errorf("Created = %q, want entity created_at", obj.Created)
	}
	if obj.Modified != "2024-06-02T12:30:00.000Z" {
		t.Errorf("Modified = %q, want entity updated_at", obj.Modified)
	}
	if obj.ValidFrom != "2024-03-01T00:00:00.000Z" {
		t.Errorf("ValidFrom = %q, want entity valid_from", obj.ValidFrom)
	}
	if len(obj.IndicatorTypes) != 2 {
		t.Errorf("IndicatorTypes = %v, want explicit types kept", obj.IndicatorTypes)
	}
	if obj.Confidence != 90 {
		t.Errorf("Confidence = %d, want 90", obj.Confidence)
	}
}

func TestThreatToSTIX_Defaults(t *testing.T) {
	obj := ThreatToSTIX(domain.Threat{Name: "Emotet"})

	if obj.Type != "malware" {
		t.Errorf("Type = %q, want 'malware'", obj.Type)
	}
	if len(obj.MalwareTypes) != 1 || obj.MalwareTypes[0] != "trojan" {
		t.Errorf("MalwareTypes = %v, want [trojan]", obj.MalwareTypes)
	}
	if obj.IsFamily {
		t.Error("IsFamily = true, want default false")
	}
	if obj.Created != obj.Modified {
		t.Errorf("created = %q, modified = %q, want shared timestamp", obj.Created, obj.Modified)
	}
}

func TestThreatActorToSTIX_Defaults(t *testing.T) {
	obj := ThreatActorToSTIX(domain.ThreatActor{Name: "FIN7"})

	if obj.Type != "threat-actor" {
		t.Errorf("Type = %q, want 'threat-actor'", obj.Type)
	}
	if len(obj.ThreatActorTypes) != 1 || obj.ThreatActorTypes[0] != "criminal" {
		t.Errorf("ThreatActorTypes = %v, want [criminal]", obj.ThreatActorTypes)
	}
}

func TestThreatActorToSTIX_ProfileFields(t *testing.T) {
	e := domain.ThreatActor{
		Name:              "Sandworm",
		ActorTypes:        []string{"nation-state"},
		Aliases:           []string{"Voodoo Bear"},
		Goals:             []string{"sabotage"},
		Sophistication:    "advanced",
		ResourceLevel:     "government",
		PrimaryMotivation: "ideology",
	}

	obj := ThreatActorToSTIX(e)

	if obj.Sophistication != "advanced" || obj.ResourceLevel != "government" || obj.PrimaryMotivation != "ideology" {
		t.Errorf("profile fields not carried: %+v", obj)
	}
	if len(obj.ThreatActorTypes) != 1 || obj.ThreatActorTypes[0] != "nation-state" {
		t.Errorf("ThreatActorTypes = %v, want explicit types kept", obj.ThreatActorTypes)
	}
}

func TestVulnerabilityToSTIX_CVEReference(t *testing.T) {
	obj := VulnerabilityToSTIX(domain.Vulnerability{
		Name:  "Log4Shell",
		CVEID: "CVE-2023-1234",
	})

	if len(obj.ExternalReferences) != 1 {
		t.Fatalf("ExternalReferences has %d entries, want exactly 1", len(obj.ExternalReferences))
	}

	ref := obj.ExternalReferences[0]
	if ref.SourceName != "cve" {
		t.Errorf("SourceName = %q, want 'cve'", ref.SourceName)
	}
	if ref.ExternalID != "CVE-2023-1234" {
		t.Errorf("ExternalID = %q, want 'CVE-2023-1234'", ref.ExternalID)
	}
	if ref.URL != "https://cve.mitre.org/cgi-bin/cvename.cgi?name=CVE-2023-1234" {
		t.Errorf("URL = %q, want mitre cvename URL", ref.URL)
	}
}

func TestVulnerabilityToSTIX_NoCVE(t *testing.T) {
	obj := VulnerabilityToSTIX(domain.Vulnerability{Name: "Internal finding"})

	if obj.ExternalReferences != nil {
		t.Errorf("ExternalReferences = %v, want omitted entirely", obj.ExternalReferences)
	}
}

func TestVulnerabilityToSTIX_NameFallsBackToCVE(t *testing.T) {
	obj := VulnerabilityToSTIX(domain.Vulnerability{CVEID: "CVE-2024-0001"})

	if obj.Name != "CVE-2024-0001" {
		t.Errorf("Name = %q, want CVE id fallback", obj.Name)
	}
}

package stix

import (
	"encoding/json"
	"fmt"
)

// SpecVersion is stamped on every object the converter produces.
const SpecVersion = "2.1"

// STIX object type discriminators.
const (
	TypeIndicator     = "indicator"
	TypeMalware       = "malware"
	TypeThreatActor   = "threat-actor"
	TypeVulnerability = "vulnerability"
	TypeRelationship  = "relationship"
	TypeBundle        = "bundle"
)

// Object is the closed set of STIX kinds the platform exchanges. The concrete
// type is discriminated by the "type" JSON member; anything outside the set
// decodes as *Unknown and is carried opaquely.
type Object interface {
	ObjectType() string
	ObjectID() string
}

type Indicator struct {
	Type           string   `json:"type"`
	SpecVersion    string   `json:"spec_version"`
	ID             string   `json:"id"`
	Created        string   `json:"created"`
	Modified       string   `json:"modified"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	IndicatorTypes []string `json:"indicator_types"`
	Pattern        string   `json:"pattern"`
	PatternType    string   `json:"pattern_type"`
	ValidFrom      string   `json:"valid_from"`
	ValidUntil     string   `json:"valid_until,omitempty"`
	Confidence     int      `json:"confidence,omitempty"`
	Labels         []string `json:"labels,omitempty"`
}

type Malware struct {
	Type         string   `json:"type"`
	SpecVersion  string   `json:"spec_version"`
	ID           string   `json:"id"`
	Created      string   `json:"created"`
	Modified     string   `json:"modified"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	MalwareTypes []string `json:"malware_types"`
	IsFamily     bool     `json:"is_family"`
	Aliases      []string `json:"aliases,omitempty"`
	FirstSeen    string   `json:"first_seen,omitempty"`
	LastSeen     string   `json:"last_seen,omitempty"`
	Labels       []string `json:"labels,omitempty"`
}

type ThreatActor struct {
	Type              string   `json:"type"`
	SpecVersion       string   `json:"spec_version"`
	ID                string   `json:"id"`
	Created           string   `json:"created"`
	Modified          string   `json:"modified"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	ThreatActorTypes  []string `json:"threat_actor_types"`
	Aliases           []string `json:"aliases,omitempty"`
	FirstSeen         string   `json:"first_seen,omitempty"`
	LastSeen          string   `json:"last_seen,omitempty"`
	Goals             []string `json:"goals,omitempty"`
	Sophistication    string   `json:"sophistication,omitempty"`
	ResourceLevel     string   `json:"resource_level,omitempty"`
	PrimaryMotivation string   `json:"primary_motivation,omitempty"`
	Labels            []string `json:"labels,omitempty"`
}

type Vulnerability struct {
	Type               string              `json:"type"`
	SpecVersion        string              `json:"spec_version"`
	ID                 string              `json:"id"`
	Created            string              `json:"created"`
	Modified           string              `json:"modified"`
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
	Labels             []string            `json:"labels,omitempty"`
}

type ExternalReference struct {
	SourceName string `json:"source_name"`
	ExternalID string `json:"external_id,omitempty"`
	URL        string `json:"url,omitempty"`
}

type Relationship struct {
	Type             string `json:"type"`
	SpecVersion      string `json:"spec_version"`
	ID               string `json:"id"`
	Created          string `json:"created"`
	Modified         string `json:"modified"`
	RelationshipType string `json:"relationship_type"`
	SourceRef        string `json:"source_ref"`
	TargetRef        string `json:"target_ref"`
	Description      string `json:"description,omitempty"`
}

// Unknown carries a STIX object of a kind the platform does not model.
// The raw bytes are preserved so nothing is mangled if the bundle is
// re-serialized, but ImportBundle never maps these into entity buckets.
type Unknown struct {
	Type string
	ID   string
	Raw  json.RawMessage
}

func (o *Indicator) ObjectType() string     { return TypeIndicator }
func (o *Malware) ObjectType() string       { return TypeMalware }
func (o *ThreatActor) ObjectType() string   { return TypeThreatActor }
func (o *Vulnerability) ObjectType() string { return TypeVulnerability }
func (o *Relationship) ObjectType() string  { return TypeRelationship }
func (o *Unknown) ObjectType() string       { return o.Type }

func (o *Indicator) ObjectID() string     { return o.ID }
func (o *Malware) ObjectID() string       { return o.ID }
func (o *ThreatActor) ObjectID() string   { return o.ID }
func (o *Vulnerability) ObjectID() string { return o.ID }
func (o *Relationship) ObjectID() string  { return o.ID }
func (o *Unknown) ObjectID() string       { return o.ID }

func (o *Unknown) MarshalJSON() ([]byte, error) {
	return o.Raw, nil
}

// Bundle is the STIX transport container. Object order is preserved in both
// directions; insertion order mirrors input order.
type Bundle struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Objects []Object `json:"objects"`
}

// UnmarshalJSON decodes the object list through the "type" discriminator.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    string            `json:"type"`
		ID      string            `json:"id"`
		Objects []json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.Type = raw.Type
	b.ID = raw.ID
	b.Objects = make([]Object, 0, len(raw.Objects))

	for i, msg := range raw.Objects {
		obj, err := decodeObject(msg)
		if err != nil {
			return fmt.Errorf("failed to decode bundle object %d: %w", i, err)
		}
		b.Objects = append(b.Objects, obj)
	}
	return nil
}

func decodeObject(msg json.RawMessage) (Object, error) {
	var envelope struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return nil, err
	}

	switch envelope.Type {
	case TypeIndicator:
		var obj Indicator
		if err := json.Unmarshal(msg, &obj); err != nil {
			return nil, err
		}
		return &obj, nil
	case TypeMalware:
		var obj Malware
		if err := json.Unmarshal(msg, &obj); err != nil {
			return nil, err
		}
		return &obj, nil
	case TypeThreatActor:
		var obj ThreatActor
		if err := json.Unmarshal(msg, &obj); err != nil {
			return nil, err
		}
		return &obj, nil
	case TypeVulnerability:
		var obj Vulnerability
		if err := json.Unmarshal(msg, &obj); err != nil {
			return nil, err
		}
		return &obj, nil
	case TypeRelationship:
		var obj Relationship
		if err := json.Unmarshal(msg, &obj); err != nil {
			return nil, err
		}
		return &obj, nil
	default:
		raw := make(json.RawMessage, len(msg))
		copy(raw, msg)
		return &Unknown{Type: envelope.Type, ID: envelope.ID, Raw: raw}, nil
	}
}

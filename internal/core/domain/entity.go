package domain

import "time"

// ObservableType identifies the kind of observable an indicator points at.
// Values follow the STIX cyber-observable type names so that pattern
// synthesis can embed them directly.
type ObservableType string

const (
	IPv4       ObservableType = "ipv4-addr"
	IPv6       ObservableType = "ipv6-addr"
	DomainName ObservableType = "domain-name"
	URL        ObservableType = "url"
	FileHash   ObservableType = "file"
)

// Indicator is an IOC record as stored by the platform. StixID is set the
// first time the indicator is exported (or when it arrives via import) and
// is reused on every subsequent conversion.
type Indicator struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Type           ObservableType `json:"type,omitempty"`
	Value          string         `json:"value,omitempty"`
	Pattern        string         `json:"pattern,omitempty"`
	IndicatorTypes []string       `json:"indicator_types,omitempty"`
	Confidence     int            `json:"confidence,omitempty"`
	Labels         []string       `json:"labels,omitempty"`
	Source         string         `json:"source,omitempty"`
	ValidFrom      *time.Time     `json:"valid_from,omitempty"`
	ValidUntil     *time.Time     `json:"valid_until,omitempty"`
	StixID         string         `json:"stix_id,omitempty"`
	CreatedAt      *time.Time     `json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
}

// Threat is a malware or threat record (maps to a STIX Malware object).
type Threat struct {
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	MalwareTypes []string   `json:"malware_types,omitempty"`
	IsFamily     bool       `json:"is_family,omitempty"`
	Aliases      []string   `json:"aliases,omitempty"`
	FirstSeen    *time.Time `json:"first_seen,omitempty"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	Labels       []string   `json:"labels,omitempty"`
	StixID       string     `json:"stix_id,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// ThreatActor is an adversary profile tracked by the platform.
type ThreatActor struct {
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	ActorTypes        []string   `json:"actor_types,omitempty"`
	Aliases           []string   `json:"aliases,omitempty"`
	FirstSeen         *time.Time `json:"first_seen,omitempty"`
	LastSeen          *time.Time `json:"last_seen,omitempty"`
	Goals             []string   `json:"goals,omitempty"`
	Sophistication    string     `json:"sophistication,omitempty"`
	ResourceLevel     string     `json:"resource_level,omitempty"`
	PrimaryMotivation string     `json:"primary_motivation,omitempty"`
	Labels            []string   `json:"labels,omitempty"`
	StixID            string     `json:"stix_id,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// Vulnerability is a tracked weakness, usually anchored to a CVE id.
type Vulnerability struct {
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	CVEID       string     `json:"cve_id,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	StixID      string     `json:"stix_id,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

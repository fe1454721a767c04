package stix

// NewRelationship builds a STIX Relationship between two object references.
// Every call mints a fresh id and timestamps; relationships carry no
// persistent identity. Neither reference is checked against any bundle;
// that is the caller's responsibility.
func NewRelationship(sourceRef, targetRef, relationshipType, description string) *Relationship {
	now := Timestamp()

	return &Relationship{
		Type:             TypeRelationship,
		SpecVersion:      SpecVersion,
		ID:               NewID(TypeRelationship),
		Created:          now,
		Modified:         now,
		RelationshipType: relationshipType,
		SourceRef:        sourceRef,
		TargetRef:        targetRef,
		Description:      description,
	}
}

package model

// DeltaAction describes what cleaning or enrichment did to a field.
type DeltaAction string

const (
	ActionEnriched    DeltaAction = "ENRICHED"
	ActionValidated   DeltaAction = "VALIDATED"
	ActionCleaned     DeltaAction = "CLEANED"
	ActionReplaced    DeltaAction = "REPLACED"
	ActionUnchanged   DeltaAction = "UNCHANGED"
	ActionBothMissing DeltaAction = "BOTH_MISSING"
)

// EnrichmentDelta records a single field change made after extraction.
type EnrichmentDelta struct {
	Field    Field       `json:"field"`
	OldValue string      `json:"oldValue,omitempty"`
	Removed  []string    `json:"removed,omitempty"`
	NewValue string      `json:"newValue,omitempty"`
	Action   DeltaAction `json:"action"`
}

// Changed reports whether the delta altered the field value.
func (d EnrichmentDelta) Changed() bool {
	return d.OldValue != d.NewValue
}

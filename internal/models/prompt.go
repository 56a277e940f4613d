package models

// StructuredSummary is the machine-readable half of an assembled prompt.
type StructuredSummary struct {
	BusinessType      string         `json:"businessType"`
	Confidence        float64        `json:"confidence"`
	Jurisdiction      string         `json:"jurisdiction,omitempty"`
	Licenses          []LicenseEntry `json:"licenses"`
	TotalCostEstimate CostRange      `json:"totalCostEstimate"`
	TimelineEstimate  TimelineRange  `json:"timelineEstimate"`

	// DataFreshness is true only when at least one origin=live entry is
	// present, letting the UI warn about cached guidance.
	DataFreshness bool `json:"dataFreshness"`
}

// AssembledPrompt is the final payload handed to the model-call collaborator.
// Created once per query and never mutated afterwards.
type AssembledPrompt struct {
	NarrativeText     string            `json:"narrativeText"`
	StructuredSummary StructuredSummary `json:"structuredSummary"`
	Truncated         bool              `json:"truncated"`
}

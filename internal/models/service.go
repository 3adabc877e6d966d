package models

// ServiceCandidate is an immutable service catalog entry.
type ServiceCandidate struct {
	ServiceID int64  `yaml:"service_id" json:"service_id"`
	Name      string `yaml:"name" json:"name"`
	Path      string `yaml:"path" json:"path"`
}

// ServiceMatch pairs a catalog entry with its similarity to the query text.
type ServiceMatch struct {
	Candidate ServiceCandidate `json:"candidate"`
	Score     float64          `json:"score"`
}

package models

import "time"

// Issue is a troubleshooting guide entry.
type Issue struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	ImageURL        string    `json:"imageUrl" yaml:"imageUrl"`
	PotentialCauses []string  `json:"potentialCauses" yaml:"potentialCauses"`
	Solutions       []string  `json:"solutions" yaml:"solutions"`
	ReportedDate    time.Time `json:"reportedDate" yaml:"reportedDate"`
}

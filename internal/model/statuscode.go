package model

// StatusCode is one row of the static radio/status code reference
// table. The table is read-only at runtime and has no synchronization
// concerns.
type StatusCode struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
}

// pkg/registry/activity.go
package registry

import "time"

// Status is an activity's implementationStatus.
type Status string

const (
	StatusImplemented Status = "implemented"
	StatusPlanned     Status = "planned"
	StatusDeprecated  Status = "deprecated"
)

// ActivityRegistry is the catalogue of BPMN service tasks the matching
// workers can execute.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Version     string `json:"version"`
	TaskType    string `json:"taskType"`
	Status      Status `json:"implementationStatus,omitempty"`

	// InputSchema is the JSON Schema the job variables are checked against
	// before the worker runs.
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`

	ErrorCodes []string `json:"errorCodes"`
	Timeout    string   `json:"timeout,omitempty"` // Go duration, e.g. "30s"
	Retries    int      `json:"retries"`
	Workflows  []string `json:"workflows,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Implemented reports whether a worker ships for the activity. An activity
// without a status counts as implemented.
func (a Activity) Implemented() bool {
	return a.Status == "" || a.Status == StatusImplemented
}

// TimeoutDuration parses Timeout; an empty value yields 0.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.Timeout)
}

func (s Status) valid() bool {
	switch s {
	case "", StatusImplemented, StatusPlanned, StatusDeprecated:
		return true
	}
	return false
}

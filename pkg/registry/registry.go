// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed activities.json
var embeddedActivities []byte

var activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

// Default returns the activity registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	return parse(embeddedActivities)
}

// LoadRegistry reads a registry file; an empty path falls back to Default.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity bound to a BPMN task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists the task types in registry order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	return out
}

// Validate checks ids, task types, status, timeout and that every input
// schema compiles.
// All problems are reported together.
func (r *ActivityRegistry) Validate() error {
	var problems []string
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)

	for _, a := range r.Activities {
		if !activityIDPattern.MatchString(a.ID) {
			problems = append(problems, fmt.Sprintf("%q: activity ID must follow domain.subdomain.action", a.ID))
		}
		if ids[a.ID] {
			problems = append(problems, fmt.Sprintf("%q: duplicate activity ID", a.ID))
		}
		ids[a.ID] = true

		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("%q: taskType is required", a.ID))
		} else if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("%q: duplicate taskType %q", a.ID, a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if !a.Status.valid() {
			problems = append(problems, fmt.Sprintf("%q: unknown implementationStatus %q", a.ID, a.Status))
		}
		if d, err := a.TimeoutDuration(); err != nil || d < 0 {
			problems = append(problems, fmt.Sprintf("%q: timeout %q is not a valid duration", a.ID, a.Timeout))
		}
		if a.Retries < 0 {
			problems = append(problems, fmt.Sprintf("%q: retries must not be negative", a.ID))
		}

		if a.InputSchema == nil {
			problems = append(problems, fmt.Sprintf("%q: inputSchema is required", a.ID))
			continue
		}
		if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema)); err != nil {
			problems = append(problems, fmt.Sprintf("%q: invalid inputSchema: %v", a.ID, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("activity registry has %d problem(s): %s", len(problems), strings.Join(problems, "; "))
	}
	return nil
}

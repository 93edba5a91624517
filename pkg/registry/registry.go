// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode activity registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists the registered task types in sorted order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every task type in required is registered past the
// planned stage and that every activity carries a known status, compilable
// schemas and a parseable timeout.
func (r *ActivityRegistry) Validate(required ...string) error {
	var problems []string

	seen := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("activity %q has no taskType", a.ID))
			continue
		}
		if seen[a.TaskType] {
			problems = append(problems, fmt.Sprintf("task type %s registered twice", a.TaskType))
		}
		seen[a.TaskType] = true

		if !knownStatus(a.ImplementationStatus) {
			problems = append(problems, fmt.Sprintf("%s: unknown implementation status %q", a.TaskType, a.ImplementationStatus))
		}

		for name, schema := range map[string]map[string]interface{}{"input": a.InputSchema, "output": a.OutputSchema} {
			if schema == nil {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				problems = append(problems, fmt.Sprintf("%s: invalid %s schema: %v", a.TaskType, name, err))
			}
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				problems = append(problems, fmt.Sprintf("%s: invalid timeout %q", a.TaskType, a.Timeout))
			}
		}
	}

	for _, taskType := range required {
		if !seen[taskType] {
			problems = append(problems, fmt.Sprintf("task type %s is not registered", taskType))
			continue
		}
		if a, _ := r.Find(taskType); a.ImplementationStatus == StatusPlanned {
			problems = append(problems, fmt.Sprintf("task type %s is only planned", taskType))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("activity registry: %s", strings.Join(problems, "; "))
	}
	return nil
}

// TimeoutOr returns the registered timeout, or fallback when none is set.
func (a *Activity) TimeoutOr(fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(a.Timeout); err == nil && d > 0 {
		return d
	}
	return fallback
}

// TimeoutFor returns the registered timeout of taskType, or fallback when the
// task type is unknown or has none.
func (r *ActivityRegistry) TimeoutFor(taskType string, fallback time.Duration) time.Duration {
	if a, ok := r.Find(taskType); ok {
		return a.TimeoutOr(fallback)
	}
	return fallback
}

func knownStatus(status string) bool {
	switch status {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified:
		return true
	}
	return false
}

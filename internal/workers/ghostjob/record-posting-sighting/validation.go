package recordpostingsighting

import "ghostjob-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"recordId"},
		Properties: map[string]validation.Property{
			"recordId": {
				Type:      "string",
				Pattern:   validation.StringPtr(validation.NonBlank),
				MaxLength: validation.IntPtr(128),
			},
			"seenAt": {
				Type:        "string",
				Description: "RFC3339 timestamp of the sighting",
				Format:      "date-time",
			},
		},
	}
}

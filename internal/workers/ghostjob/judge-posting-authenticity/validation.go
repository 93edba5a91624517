package judgepostingauthenticity

import "ghostjob-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"jobTitle", "company", "jobDescription"},
		Properties: map[string]validation.Property{
			"jobTitle": {
				Type:      "string",
				Pattern:   validation.StringPtr(validation.NonBlank),
				MaxLength: validation.IntPtr(500),
			},
			"company": {
				Type:      "string",
				Pattern:   validation.StringPtr(validation.NonBlank),
				MaxLength: validation.IntPtr(255),
			},
			"location": {
				Type:      "string",
				MaxLength: validation.IntPtr(255),
			},
			"jobDescription": {
				Type:      "string",
				Pattern:   validation.StringPtr(validation.NonBlank),
				MaxLength: validation.IntPtr(100000),
			},
		},
	}
}

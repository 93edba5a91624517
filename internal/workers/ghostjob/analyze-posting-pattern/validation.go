package analyzepostingpattern

import "ghostjob-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"companyName", "jobTitle", "jobDescription"},
		Properties: map[string]validation.Property{
			"companyName": {
				Type:        "string",
				Description: "Company name as written in the posting",
				Pattern:     validation.StringPtr(validation.NonBlank),
				MaxLength:   validation.IntPtr(255),
			},
			"jobTitle": {
				Type:        "string",
				Description: "Posting title",
				Pattern:     validation.StringPtr(validation.NonBlank),
				MaxLength:   validation.IntPtr(500),
			},
			"location": {
				Type:        "string",
				Description: "Free-text location",
				MaxLength:   validation.IntPtr(255),
			},
			"jobDescription": {
				Type:        "string",
				Description: "Full posting text",
				Pattern:     validation.StringPtr(validation.NonBlank),
				MaxLength:   validation.IntPtr(100000),
			},
			"ownerId": {
				Type:        "string",
				Description: "Submitting user, anonymous when omitted",
				MaxLength:   validation.IntPtr(255),
			},
		},
	}
}

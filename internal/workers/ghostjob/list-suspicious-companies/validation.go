package listsuspiciouscompanies

import "ghostjob-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"limit": {
				Type:        "integer",
				Description: "Maximum number of companies to return, 0 for all",
				Minimum:     validation.FloatPtr(0),
				Maximum:     validation.FloatPtr(10000),
			},
			"refreshCache": {
				Type:        "boolean",
				Description: "Rebuild the report even when a cached copy exists",
			},
		},
	}
}

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompanyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme, Inc.", "acme"},
		{"acme inc", "acme"},
		{"ACME   INC", "acme"},
		{"acme", "acme"},
		{"  Globex Corp  ", "globex"},
		{"Initech LLC", "initech"},
		{"Umbrella (UK) Ltd.", "umbrella uk"},
		{"Acme Inc Inc", "acme"},
		{"Inc.", "inc"},
		{"Incredible Machines", "incredible machines"},
		{"Stark\tIndustries\n", "stark industries"},
		{"", ""},
		{"   ", ""},
		{"O'Reilly Media", "oreilly media"},
		{"Acme - Inc", "acme"},
		{"Acme / Inc.", "acme"},
		{"Acme & Sons", "acme sons"},
		{"AT&T Inc", "at&t"},
		{"Hewlett-Packard", "hewlett-packard"},
		{" - & / ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CompanyName(tt.in))
		})
	}
}

func TestCompanyName_Idempotent(t *testing.T) {
	inputs := []string{
		"Acme, Inc.", "ACME   INC", "Inc.", "llc", "Wayne Enterprises Ltd Corp",
		"  multiple   spaces here ", "{Braces} [and] (parens)!", "",
		"Acme - Inc", "Acme & Sons / LLC",
	}
	for _, in := range inputs {
		once := CompanyName(in)
		assert.Equal(t, once, CompanyName(once), "input %q", in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Acme, Inc.", "ACME INC"))
	assert.True(t, Equal("ACME INC", "acme"))
	assert.False(t, Equal("Acme", "Acme Labs"))
	assert.True(t, Equal("Acme - Inc", "Acme, Inc."))
}

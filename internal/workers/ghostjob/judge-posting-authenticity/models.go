package judgepostingauthenticity

type Input struct {
	JobTitle       string `json:"jobTitle"`
	Company        string `json:"company"`
	Location       string `json:"location,omitempty"`
	JobDescription string `json:"jobDescription"`
}

type Output struct {
	AuthenticityScore int      `json:"authenticityScore"`
	RedFlags          []string `json:"redFlags"`
	GreenFlags        []string `json:"greenFlags"`
	Reasoning         string   `json:"reasoning"`
}

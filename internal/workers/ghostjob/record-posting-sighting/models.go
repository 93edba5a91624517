package recordpostingsighting

type Input struct {
	RecordID string `json:"recordId"`
	// SeenAt is RFC3339; the current time is used when it is empty.
	SeenAt string `json:"seenAt,omitempty"`
}

type Output struct {
	RecordID  string `json:"recordId"`
	FirstSeen string `json:"firstSeen"`
	LastSeen  string `json:"lastSeen"`
	OpenDays  int    `json:"openDays"`
}

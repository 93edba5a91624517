package judge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/models"
)

const (
	MinAuthenticityScore = 1
	MaxAuthenticityScore = 10
)

type rawJudgement struct {
	AuthenticityScore json.RawMessage `json:"authenticityScore"`
	RedFlags          []string        `json:"redFlags"`
	GreenFlags        []string        `json:"greenFlags"`
	Reasoning         string          `json:"reasoning"`
}

// ParseJudgement decodes a model answer, tolerating a surrounding code fence.
// The score must be a JSON integer in [1,10]; strings such as "7" and
// fractions such as 7.5 are rejected.
func ParseJudgement(raw string) (*models.AuthenticityJudgement, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, apperrors.NewJudgeResponseInvalidError("empty response")
	}

	var parsed rawJudgement
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, apperrors.NewJudgeResponseInvalidError("response is not a JSON object: " + err.Error())
	}

	score, err := parseScore(parsed.AuthenticityScore)
	if err != nil {
		return nil, err
	}

	return &models.AuthenticityJudgement{
		AuthenticityScore: score,
		RedFlags:          cleanFlags(parsed.RedFlags),
		GreenFlags:        cleanFlags(parsed.GreenFlags),
		Reasoning:         strings.TrimSpace(parsed.Reasoning),
	}, nil
}

func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, apperrors.NewJudgeResponseInvalidError("authenticityScore is missing")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, apperrors.NewJudgeResponseInvalidError("authenticityScore is unreadable")
	}

	num, ok := v.(json.Number)
	if !ok {
		return 0, apperrors.NewJudgeResponseInvalidError(fmt.Sprintf("authenticityScore is not numeric: %s", raw))
	}
	score, err := num.Int64()
	if err != nil {
		return 0, apperrors.NewJudgeResponseInvalidError(fmt.Sprintf("authenticityScore is not an integer: %s", num))
	}
	if score < MinAuthenticityScore || score > MaxAuthenticityScore {
		return 0, apperrors.NewJudgeResponseInvalidError(fmt.Sprintf("authenticityScore %d is outside [%d,%d]",
			score, MinAuthenticityScore, MaxAuthenticityScore))
	}
	return int(score), nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func cleanFlags(flags []string) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

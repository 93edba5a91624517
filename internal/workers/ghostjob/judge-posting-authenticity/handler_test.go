package judgepostingauthenticity

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostjob-workers/internal/common/camunda/camundatest"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/judge"
)

type cannedGenerator struct {
	response string
	err      error
}

func (c cannedGenerator) GenerateContent(context.Context, string) (string, error) {
	return c.response, c.err
}

func newHandler(t *testing.T, gen judge.Generator) *Handler {
	log := logger.NewTestLogger(t)
	return NewHandler(DefaultConfig(), judge.New(gen, judge.Options{}, log), log, nil)
}

func postingVariables() map[string]interface{} {
	return map[string]interface{}{
		"jobTitle":       "Senior Data Engineer",
		"company":        "Initech",
		"location":       "Austin, TX",
		"jobDescription": "Own the nightly ETL pipeline and the warehouse schema.",
	}
}

func TestHandle_CompletesWithVerdict(t *testing.T) {
	h := newHandler(t, cannedGenerator{
		response: `{"authenticityScore": 8, "redFlags": [], "greenFlags": ["named team", "concrete stack"], "reasoning": "specific duties"}`,
	})
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.NewJob(1, TaskType, postingVariables()))

	vars := client.CompletedVariables()
	require.NotNil(t, vars)
	assert.Equal(t, float64(8), vars["authenticityScore"])
	assert.Equal(t, []interface{}{}, vars["redFlags"])
	assert.Equal(t, []interface{}{"named team", "concrete stack"}, vars["greenFlags"])
	assert.Equal(t, "specific duties", vars["reasoning"])
}

func TestHandle_InvalidVerdictIsThrown(t *testing.T) {
	for _, raw := range []string{
		`{"authenticityScore": 0}`,
		`{"authenticityScore": 11}`,
		`{"authenticityScore": "seven"}`,
		`{"authenticityScore": 7.5}`,
		`not json at all`,
	} {
		t.Run(raw, func(t *testing.T) {
			h := newHandler(t, cannedGenerator{response: raw})
			client := camundatest.NewJobClient()

			h.Handle(client, camundatest.NewJob(2, TaskType, postingVariables()))

			require.Len(t, client.Gateway.Thrown, 1)
			assert.Equal(t, "JUDGE_RESPONSE_INVALID", client.Gateway.Thrown[0].ErrorCode)
			assert.Empty(t, client.Gateway.Completed)
		})
	}
}

func TestHandle_TransportFailureIsRetried(t *testing.T) {
	h := newHandler(t, cannedGenerator{err: stderrors.New("connection reset")})
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.NewJob(3, TaskType, postingVariables()))

	require.Len(t, client.Gateway.Failed, 1)
	assert.Empty(t, client.Gateway.Thrown)
}

func TestHandle_MissingFields(t *testing.T) {
	h := newHandler(t, cannedGenerator{response: `{"authenticityScore": 5}`})
	client := camundatest.NewJobClient()
	vars := postingVariables()
	delete(vars, "company")

	h.Handle(client, camundatest.NewJob(4, TaskType, vars))

	require.Len(t, client.Gateway.Thrown, 1)
	assert.Equal(t, "INVALID_INPUT", client.Gateway.Thrown[0].ErrorCode)
}

func TestExecute_NilFlagsBecomeEmpty(t *testing.T) {
	h := newHandler(t, cannedGenerator{response: `{"authenticityScore": 4, "reasoning": "thin"}`})

	out, err := h.Execute(context.Background(), &Input{
		JobTitle:       "Clerk",
		Company:        "Vandelay",
		JobDescription: "Import and export.",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, out.AuthenticityScore)
	assert.NotNil(t, out.RedFlags)
	assert.NotNil(t, out.GreenFlags)
}

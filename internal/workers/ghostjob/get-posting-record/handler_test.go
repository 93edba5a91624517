package getpostingrecord

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostjob-workers/internal/common/camunda/camundatest"
	"ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/detection/pattern"
	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store/memory"
)

var firstSeen = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func seededHandler(t *testing.T) *Handler {
	st := memory.New()
	for _, rec := range []models.PostingRecord{
		{ID: "owned", CompanyName: "acme", JobTitle: "Engineer", JobDescription: "Go services.", FirstSeen: firstSeen, OwnerID: "alice"},
		{ID: "anon", CompanyName: "acme", JobTitle: "Designer", JobDescription: "Figma.", FirstSeen: firstSeen, OwnerID: models.AnonymousOwner},
	} {
		require.NoError(t, st.Append(context.Background(), rec))
	}
	log := logger.NewTestLogger(t)
	return NewHandler(DefaultConfig(), pattern.NewService(st, pattern.DefaultPolicy(), log), log, nil)
}

func TestHandle_ReturnsRecordToOwner(t *testing.T) {
	h := seededHandler(t)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.NewJob(1, TaskType, map[string]interface{}{
		"recordId":    "owned",
		"requesterId": "alice",
	}))

	vars := client.CompletedVariables()
	require.NotNil(t, vars)
	rec := vars["postingRecord"].(map[string]interface{})
	assert.Equal(t, "owned", rec["id"])
	assert.Equal(t, "acme", rec["companyName"])
	assert.Equal(t, "2024-03-01T09:30:00Z", rec["firstSeen"])
}

func TestExecute_Ownership(t *testing.T) {
	h := seededHandler(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		recordID  string
		requester string
		code      errors.ErrorCode
	}{
		{"owner", "owned", "alice", ""},
		{"other user", "owned", "bob", errors.ErrCodeAccessDenied},
		{"no requester", "owned", "", errors.ErrCodeAccessDenied},
		{"anonymous record", "anon", "bob", ""},
		{"anonymous record no requester", "anon", "", ""},
		{"unknown record", "missing", "alice", errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(ctx, &Input{RecordID: tt.recordID, RequesterID: tt.requester})
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.recordID, out.PostingRecord.ID)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestHandle_DeniedAndMissingAreThrown(t *testing.T) {
	h := seededHandler(t)

	client := camundatest.NewJobClient()
	h.Handle(client, camundatest.NewJob(2, TaskType, map[string]interface{}{"recordId": "owned", "requesterId": "mallory"}))
	require.Len(t, client.Gateway.Thrown, 1)
	assert.Equal(t, "ACCESS_DENIED", client.Gateway.Thrown[0].ErrorCode)

	client = camundatest.NewJobClient()
	h.Handle(client, camundatest.NewJob(3, TaskType, map[string]interface{}{"recordId": "nope"}))
	require.Len(t, client.Gateway.Thrown, 1)
	assert.Equal(t, "NOT_FOUND", client.Gateway.Thrown[0].ErrorCode)

	client = camundatest.NewJobClient()
	h.Handle(client, camundatest.NewJob(4, TaskType, map[string]interface{}{"recordId": " "}))
	require.Len(t, client.Gateway.Thrown, 1)
	assert.Equal(t, "INVALID_INPUT", client.Gateway.Thrown[0].ErrorCode)
}

func TestCanRead(t *testing.T) {
	assert.True(t, CanRead(&models.PostingRecord{OwnerID: ""}, "x"))
	assert.True(t, CanRead(&models.PostingRecord{OwnerID: "alice"}, "alice"))
	assert.False(t, CanRead(&models.PostingRecord{OwnerID: "alice"}, "Alice"))
}

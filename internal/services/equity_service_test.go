package services

import (
	"context"
	"testing"

	"github.com/avdeenkov/procurement-service/internal/models"
)

func TestEquityAppendAndRead(t *testing.T) {
	repo := &fakeEquityRepo{}
	service := NewEquityService(repo, newTestLogger())
	ctx := context.Background()

	actions := []models.EquityAction{
		models.ActionTenderCreated,
		models.ActionTenderEdited,
		models.ActionTenderPublished,
	}
	for _, action := range actions {
		service.Append(ctx, "t-1", "alice", action, "step", nil)
	}
	service.Append(ctx, "t-other", "alice", models.ActionTenderCreated, "unrelated", nil)

	logs, err := service.GetTenderLogs(ctx, "t-1")
	if err != nil {
		t.Fatalf("GetTenderLogs failed: %v", err)
	}
	if len(logs) != len(actions) {
		t.Fatalf("logs = %d, want %d", len(logs), len(actions))
	}

	// От новых к старым.
	for i, log := range logs {
		want := actions[len(actions)-1-i]
		if log.Action != want {
			t.Errorf("logs[%d].Action = %s, want %s", i, log.Action, want)
		}
	}
}

func TestGetTenderLogsValidation(t *testing.T) {
	service := NewEquityService(&fakeEquityRepo{}, newTestLogger())

	_, err := service.GetTenderLogs(context.Background(), "")
	assertKind(t, err, models.ValidationError)
}

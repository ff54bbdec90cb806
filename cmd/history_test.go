package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashavikaSingh/meeting-summariser/cmdlog"
	"github.com/YashavikaSingh/meeting-summariser/config"
)

func withCommandLog(deps *CommandDeps, log CommandLog, openErr error) {
	deps.Config.CommandLog = &config.CommandLogConfig{Host: "db.test", Database: "msum", User: "alice"}
	deps.CommandLog = func(context.Context, *config.CommandLogConfig) (CommandLog, error) {
		if openErr != nil {
			return nil, openErr
		}
		return log, nil
	}
}

func TestRecordCommand(t *testing.T) {
	deps := testDeps(t, newFakeBackend())
	log := &fakeCommandLog{}
	withCommandLog(deps, log, nil)

	deps.RecordCommand(context.Background(), &cmdlog.Entry{Command: "meetings delete", MeetingID: testMeetingID, Success: true})

	require.Len(t, log.entries, 1)
	assert.Equal(t, testMeetingID, log.entries[0].MeetingID)
	assert.Equal(t, 1, log.closed)
}

func TestRecordCommand_Unconfigured(t *testing.T) {
	deps := testDeps(t, newFakeBackend())
	called := false
	deps.CommandLog = func(context.Context, *config.CommandLogConfig) (CommandLog, error) {
		called = true
		return &fakeCommandLog{}, nil
	}

	deps.RecordCommand(context.Background(), &cmdlog.Entry{Command: "meetings list"})
	assert.False(t, called)
}

func TestRecordCommand_OpenFailureIsSilent(t *testing.T) {
	deps := testDeps(t, newFakeBackend())
	withCommandLog(deps, nil, errors.New("connection refused"))

	assert.NotPanics(t, func() {
		deps.RecordCommand(context.Background(), &cmdlog.Entry{Command: "meetings list"})
	})
}

func TestHistory(t *testing.T) {
	deps := testDeps(t, newFakeBackend())
	created := time.Date(2026, 10, 12, 9, 30, 0, 0, time.Local)
	log := &fakeCommandLog{entries: []cmdlog.Entry{
		{User: "alice", Command: "meetings list", FullCommand: "msum meetings list", DurationMs: 120, Success: true, CreatedAt: created},
		{User: "alice", Command: "meetings delete", FullCommand: "msum meetings delete abc --yes", DurationMs: 40, ErrorMessage: "Meeting not found", CreatedAt: created},
	}}
	withCommandLog(deps, log, nil)

	out, _, err := execute(t, NewHistoryCommand(deps))
	require.NoError(t, err)
	assert.Contains(t, out, "2026-10-12 09:30:00")
	assert.Contains(t, out, "msum meetings list")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "Meeting not found")

	out, _, err = execute(t, NewHistoryCommand(deps), "--command", "meetings list")
	require.NoError(t, err)
	assert.NotContains(t, out, "meetings delete")
}

func TestHistory_Unconfigured(t *testing.T) {
	_, _, err := execute(t, NewHistoryCommand(testDeps(t, newFakeBackend())))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command log not configured")
}

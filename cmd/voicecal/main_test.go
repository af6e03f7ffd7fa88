package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schederrors "github.com/hrygo/voicecal/internal/errors"
	aischedule "github.com/hrygo/voicecal/plugin/ai/schedule"
	"github.com/hrygo/voicecal/server/service/schedule"
)

const fixedNow = "2025-11-28T10:00:00+08:00"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--now", fixedNow, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestParseCmd(t *testing.T) {
	out, err := execute(t, "parse", "明天下午2点到3点,团队会议")
	require.NoError(t, err)

	var result aischedule.ParseResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Request)
	assert.Equal(t, "团队会议", result.Request.Title)
	assert.Equal(t, "2025-11-29 14:00", result.Request.Start.Format("2006-01-02 15:04"))
	assert.Equal(t, "2025-11-29 15:00", result.Request.End.Format("2006-01-02 15:04"))
}

func TestParseCmd_Rejected(t *testing.T) {
	out, err := execute(t, "parse", "明天开会")

	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, out, string(schederrors.ErrCodeUnresolvableTime))
}

func TestCheckCmd(t *testing.T) {
	t.Run("conflict", func(t *testing.T) {
		out, err := execute(t, "check",
			"--start", "2025-11-28 14:00", "--end", "2025-11-28 15:00",
			"--block", "14:30-15:30 评审", "--block", "09:00-10:00 早会")

		assert.ErrorIs(t, err, errRejected)
		var report schedule.ConflictReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		require.True(t, report.HasConflict)
		require.Len(t, report.Conflicts, 1)
		assert.Equal(t, "14:30-15:30 评审", report.Conflicts[0].SourceText)
	})

	t.Run("free with default end", func(t *testing.T) {
		out, err := execute(t, "check", "--start", "2025-11-28T15:30:00+08:00", "--block", "14:30-15:30 评审")

		require.NoError(t, err)
		var report schedule.ConflictReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.False(t, report.HasConflict)
		assert.Equal(t, "2025-11-28 16:30", report.ProposedEnd.Format("2006-01-02 15:04"))
	})

	t.Run("invalid start", func(t *testing.T) {
		_, err := execute(t, "check", "--start", "tomorrow")

		assert.True(t, schederrors.IsCode(err, schederrors.ErrCodeInvalidArgument))
		assert.Equal(t, 2, exitCode(err))
	})
}

func TestPlanCmd(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "day.html")
	require.NoError(t, os.WriteFile(htmlPath, []byte(`<div class="ev">09:00-10:00 早会</div>`), 0o600))

	t.Run("accepted", func(t *testing.T) {
		out, err := execute(t, "plan", "--html", htmlPath, "--selector", ".ev", "明天下午2点到3点,团队会议")

		require.NoError(t, err)
		var plan schedule.Plan
		require.NoError(t, json.Unmarshal([]byte(out), &plan))
		assert.True(t, plan.Accepted)
		assert.Equal(t, "好的！已为您安排日程：团队会议，时间：明天14点00分到15点00分。", plan.Message)
	})

	t.Run("conflict from html", func(t *testing.T) {
		out, err := execute(t, "plan", "--html", htmlPath, "--selector", ".ev", "明天上午9点半开会")

		assert.ErrorIs(t, err, errRejected)
		var plan schedule.Plan
		require.NoError(t, json.Unmarshal([]byte(out), &plan))
		assert.False(t, plan.Accepted)
		assert.Contains(t, plan.Message, "09:00到10:00")
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := execute(t, "plan", "--ics", filepath.Join(dir, "missing.ics"), "明天下午3点开会")

		assert.True(t, schederrors.IsCode(err, schederrors.ErrCodeSourceUnavailable))
	})
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicecal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: UTC\n"), 0o600))

	out, err := execute(t, "--config", path, "parse", "明天上午9点开会")
	require.NoError(t, err)

	var result aischedule.ParseResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	_, offset := result.Request.Start.Zone()
	assert.Equal(t, 0, offset)
	// the reference instant is 02:00 UTC on the same day
	assert.Equal(t, "2025-11-29 09:00", result.Request.Start.Format("2006-01-02 15:04"))
}

func TestInvalidTimezone(t *testing.T) {
	_, err := execute(t, "--timezone", "Mars/Olympus", "parse", "明天下午3点开会")

	require.Error(t, err)
	assert.True(t, schederrors.IsCode(err, schederrors.ErrCodeInvalidArgument))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errRejected))
	assert.Equal(t, 1, exitCode(errors.Wrap(errRejected, "plan")))
	assert.Equal(t, 2, exitCode(errors.New("boom")))
}

package main

import (
	"bytes"
	groupingModel "github.com/Avi18971911/DebugLens/internal/grouping/model"
	metadataModel "github.com/Avi18971911/DebugLens/internal/metadata/model"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

const triggerLog = `59.0 APEX_CODE,FINEST
09:15:30.250 (1000000)|EXECUTION_STARTED
09:15:30.250 (1100000)|USER_INFO|[EXTERNAL]|005xx000001Sv6e|jane@example.com|Pacific Standard Time|GMT-08:00
09:15:30.251 (2000000)|CODE_UNIT_STARTED|[EXTERNAL]|01q000000000001|AccountTrigger on Account trigger event BeforeUpdate|__sfdc_trigger/AccountTrigger
09:15:30.260 (9000000)|CODE_UNIT_FINISHED|AccountTrigger on Account trigger event BeforeUpdate
09:15:30.262 (11000000)|EXECUTION_FINISHED
`

func writeLogs(t *testing.T, names ...string) string {
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(triggerLog), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	t.Run("should print one analysis per file in a directory", func(t *testing.T) {
		dir := writeLogs(t, "a.log", "b.log")

		stdout, _, err := execute(t, "analyze", dir)

		require.NoError(t, err)
		var analyses []parserModel.LogAnalysis
		require.NoError(t, json.Unmarshal([]byte(stdout), &analyses))
		require.Len(t, analyses, 2)
		assert.Equal(t, "a.log", analyses[0].Name)
		assert.Equal(t, "b.log", analyses[1].Name)
	})

	t.Run("should report missing paths", func(t *testing.T) {
		_, _, err := execute(t, "analyze", filepath.Join(t.TempDir(), "missing.log"))

		assert.Error(t, err)
	})

	t.Run("should require at least one path", func(t *testing.T) {
		_, _, err := execute(t, "analyze")

		assert.Error(t, err)
	})
}

func TestMetadataCommand(t *testing.T) {
	t.Run("should print metadata with the user identity", func(t *testing.T) {
		dir := writeLogs(t, "trigger.log")

		stdout, _, err := execute(t, "metadata", "--pretty", filepath.Join(dir, "trigger.log"))

		require.NoError(t, err)
		var records []metadataModel.DebugLogMetadata
		require.NoError(t, json.Unmarshal([]byte(stdout), &records))
		require.Len(t, records, 1)
		assert.Equal(t, "005xx000001Sv6e", records[0].UserId)
		assert.Equal(t, parserModel.EntryTrigger, records[0].EntryPointType)
	})
}

func TestGroupCommand(t *testing.T) {
	t.Run("should group logs of the same user and time into one transaction", func(t *testing.T) {
		dir := writeLogs(t, "a.log", "b.log")

		stdout, _, err := execute(t, "group", dir)

		require.NoError(t, err)
		var interaction groupingModel.Interaction
		require.NoError(t, json.Unmarshal([]byte(stdout), &interaction))
		require.Len(t, interaction.Groups, 1)
		assert.Len(t, interaction.Groups[0].Members, 2)
	})

	t.Run("should reject a negative window", func(t *testing.T) {
		dir := writeLogs(t, "a.log")

		_, _, err := execute(t, "group", "--window", "-1s", dir)

		assert.ErrorIs(t, err, ErrNegativeWindow)
	})
}

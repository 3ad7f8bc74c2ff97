package main

import (
	"bytes"
	logsServer "github.com/Avi18971911/DebugLens/internal/otel_server/log/server"
	batchModel "github.com/Avi18971911/DebugLens/internal/pipeline/batch/model"
	"github.com/Avi18971911/DebugLens/internal/pipeline/ingest/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	_ "google.golang.org/grpc/encoding/gzip"
	"net"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

type recordingSubmitter struct {
	mu     sync.Mutex
	traces []model.TraceReceived
}

func (s *recordingSubmitter) Submit(trace model.TraceReceived) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces = append(s.traces, trace)
	return nil
}

func startReceiver(t *testing.T, submitter *recordingSubmitter) string {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	protoLogs.RegisterLogsServiceServer(srv, logsServer.NewLogServiceServerImpl(logger, submitter))
	go func() {
		_ = srv.Serve(listener)
	}()
	t.Cleanup(srv.Stop)
	return listener.Addr().String()
}

func TestShip(t *testing.T) {
	t.Run("should deliver every file as a named trace", func(t *testing.T) {
		submitter := &recordingSubmitter{}
		endpoint := startReceiver(t, submitter)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.log"), []byte("09:00:00.000 (1)|EXECUTION_STARTED"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.log"), []byte("09:00:00.000 (1)|EXECUTION_STARTED"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "c.log"), []byte("09:00:00.000 (1)|EXECUTION_STARTED"), 0o644))

		var stdout bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&stdout)
		cmd.SetArgs([]string{"--endpoint", endpoint, "--batch-size", "2", dir})
		require.NoError(t, cmd.Execute())

		submitter.mu.Lock()
		defer submitter.mu.Unlock()
		require.Len(t, submitter.traces, 3)
		names := []string{submitter.traces[0].Name, submitter.traces[1].Name, submitter.traces[2].Name}
		sort.Strings(names)
		assert.Equal(t, []string{"a.log", "b.log", "c.log"}, names)
		assert.Equal(t, "09:00:00.000 (1)|EXECUTION_STARTED", submitter.traces[0].Text)
		assert.Equal(t, "a.log\nb.log\nc.log\n", stdout.String())
	})
}

func TestNewExportRequest(t *testing.T) {
	t.Run("should keep the calendar day of the log date", func(t *testing.T) {
		zone := time.FixedZone("UTC+9", 9*60*60)
		request := newExportRequest([]batchModel.TraceSource{
			{Name: "a.log", Text: "x", LogDate: time.Date(2026, time.March, 4, 0, 0, 0, 0, zone)},
		})

		record := request.ResourceLogs[0].ScopeLogs[0].LogRecords[0]
		at := time.Unix(0, int64(record.TimeUnixNano)).UTC()
		assert.Equal(t, time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC), at)
		assert.Equal(t, logsServer.LogNameAttribute, record.Attributes[0].Key)
		assert.Equal(t, "a.log", record.Attributes[0].Value.GetStringValue())
	})
}

func TestBatches(t *testing.T) {
	t.Run("should split sources into batches of at most the given size", func(t *testing.T) {
		sources := make([]batchModel.TraceSource, 5)

		result := batches(sources, 2)

		require.Len(t, result, 3)
		assert.Len(t, result[2], 1)
	})
}

package main

import (
	"context"
	"fmt"
	logsServer "github.com/Avi18971911/DebugLens/internal/otel_server/log/server"
	"github.com/Avi18971911/DebugLens/internal/pipeline/batch/model"
	batchService "github.com/Avi18971911/DebugLens/internal/pipeline/batch/service"
	"github.com/spf13/cobra"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonV1 "go.opentelemetry.io/proto/otlp/common/v1"
	v1 "go.opentelemetry.io/proto/otlp/logs/v1"
	resourceV1 "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding/gzip"
	"os"
	"time"
)

const serviceName = "debuglens-trace-shipper"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var endpoint string
	var batchSize int
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:          "trace_shipper [file or directory...]",
		Short:        "Ship debug log files to a DebugLens ingest server over OTLP",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := batchService.ExpandPaths(args)
			if err != nil {
				return err
			}
			sources, failures := batchService.LoadFiles(paths)
			for _, failure := range failures {
				fmt.Fprintln(cmd.ErrOrStderr(), failure.Error())
			}
			return ship(cmd, endpoint, sources, batchSize, timeout)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "localhost:4317", "address of the OTLP logs receiver")
	cmd.Flags().IntVar(&batchSize, "batch-size", 10, "number of logs per export request")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout of each export request")
	return cmd
}

func ship(cmd *cobra.Command, endpoint string, sources []model.TraceSource, batchSize int, timeout time.Duration) error {
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to create grpc client: %w", err)
	}
	defer conn.Close()

	client := protoLogs.NewLogsServiceClient(conn)
	for _, batch := range batches(sources, batchSize) {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		resp, err := client.Export(ctx, newExportRequest(batch), grpc.UseCompressor(gzip.Name))
		cancel()
		if err != nil {
			return fmt.Errorf("failed to export logs: %w", err)
		}
		if partial := resp.GetPartialSuccess(); partial.GetRejectedLogRecords() > 0 {
			fmt.Fprintf(
				cmd.ErrOrStderr(),
				"%d logs rejected: %s\n",
				partial.GetRejectedLogRecords(),
				partial.GetErrorMessage(),
			)
		}
		for _, source := range batch {
			fmt.Fprintln(cmd.OutOrStdout(), source.Name)
		}
	}
	return nil
}

func batches(sources []model.TraceSource, size int) [][]model.TraceSource {
	if size <= 0 {
		size = 1
	}
	var result [][]model.TraceSource
	for start := 0; start < len(sources); start += size {
		result = append(result, sources[start:min(start+size, len(sources))])
	}
	return result
}

// newExportRequest carries every trace as the body of one log record, named
// by the log.name attribute.
func newExportRequest(sources []model.TraceSource) *protoLogs.ExportLogsServiceRequest {
	records := make([]*v1.LogRecord, len(sources))
	for i, source := range sources {
		record := &v1.LogRecord{
			Body: &commonV1.AnyValue{Value: &commonV1.AnyValue_StringValue{StringValue: source.Text}},
			Attributes: []*commonV1.KeyValue{
				{
					Key:   logsServer.LogNameAttribute,
					Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_StringValue{StringValue: source.Name}},
				},
			},
			ObservedTimeUnixNano: uint64(time.Now().UnixNano()),
		}
		if !source.LogDate.IsZero() {
			year, month, day := source.LogDate.Date()
			record.TimeUnixNano = uint64(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixNano())
		}
		records[i] = record
	}
	return &protoLogs.ExportLogsServiceRequest{
		ResourceLogs: []*v1.ResourceLogs{
			{
				Resource: &resourceV1.Resource{
					Attributes: []*commonV1.KeyValue{
						{
							Key:   "service.name",
							Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_StringValue{StringValue: serviceName}},
						},
					},
				},
				ScopeLogs: []*v1.ScopeLogs{{LogRecords: records}},
			},
		},
	}
}

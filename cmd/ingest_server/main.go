package main

import (
	"context"
	"flag"
	"github.com/Avi18971911/DebugLens/internal/config"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/bootstrapper"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/client"
	esModel "github.com/Avi18971911/DebugLens/internal/db/elasticsearch/model"
	"github.com/Avi18971911/DebugLens/internal/db/write_buffer"
	groupingService "github.com/Avi18971911/DebugLens/internal/grouping/service"
	"github.com/Avi18971911/DebugLens/internal/logger"
	metadataService "github.com/Avi18971911/DebugLens/internal/metadata/service"
	logsServer "github.com/Avi18971911/DebugLens/internal/otel_server/log/server"
	parserService "github.com/Avi18971911/DebugLens/internal/parser/service"
	"github.com/Avi18971911/DebugLens/internal/pipeline/cache"
	"github.com/Avi18971911/DebugLens/internal/pipeline/ingest/service"
	"github.com/asaskevich/EventBus"
	"github.com/elastic/go-elasticsearch/v8"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	_ "google.golang.org/grpc/encoding/gzip"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zapLogger, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.Elasticsearch.Addresses})
	if err != nil {
		zapLogger.Fatal("Failed to create elasticsearch client", zap.Error(err))
	}

	bs := bootstrapper.NewBootstrapper(es, zapLogger)
	err = bs.BootstrapElasticsearch()
	if err != nil {
		zapLogger.Fatal("Failed to bootstrap elasticsearch", zap.Error(err))
	}

	listener, err := net.Listen("tcp", cfg.Server.GRPCAddress)
	if err != nil {
		zapLogger.Fatal("Failed to listen", zap.String("address", cfg.Server.GRPCAddress), zap.Error(err))
	}

	analysisCache, err := cache.NewAnalysisCache(cfg.Pipeline.CacheSize, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create analysis cache", zap.Error(err))
	}
	defer analysisCache.Close()

	dc := client.NewDebugLensClientImpl(es, client.Async)
	analysisDBBuffer := write_buffer.NewDatabaseWriteBufferImpl[esModel.AnalysisDocument](
		dc,
		bootstrapper.AnalysisIndexName,
		cfg.Elasticsearch.WriteQueueSize,
		zapLogger,
	)
	groupDBBuffer := write_buffer.NewDatabaseWriteBufferImpl[esModel.GroupDocument](
		dc,
		bootstrapper.LogGroupIndexName,
		cfg.Elasticsearch.WriteQueueSize,
		zapLogger,
	)

	pipeline := service.NewIngestPipeline(
		service.Options{
			Workers:        int64(cfg.Pipeline.Workers),
			MaxParseLines:  cfg.Pipeline.MaxParseLines,
			GroupingWindow: cfg.Pipeline.GroupingWindow,
		},
		cache.NewCachingLogParser(
			parserService.NewLogParserService(cfg.ParserOptions(), zapLogger),
			analysisCache,
		),
		metadataService.NewMetadataExtractorService(metadataService.DefaultOptions(), zapLogger),
		groupingService.NewTransactionGrouperService(groupingService.DefaultOptions(), zapLogger),
		analysisDBBuffer,
		groupDBBuffer,
		EventBus.New(),
		zapLogger,
	)
	ticker := time.NewTicker(cfg.Pipeline.GroupingInterval)
	defer ticker.Stop()
	groupingCtx, stopGrouping := context.WithCancel(context.Background())
	defer stopGrouping()
	err = pipeline.Start(groupingCtx, ticker)
	if err != nil {
		zapLogger.Fatal("Failed to start ingest pipeline", zap.Error(err))
	}

	srv := grpc.NewServer()
	logServiceServer := logsServer.NewLogServiceServerImpl(zapLogger, pipeline)
	protoLogs.RegisterLogsServiceServer(srv, logServiceServer)

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals
		zapLogger.Info("Shutting down, flushing pending documents")
		srv.GracefulStop()
	}()

	zapLogger.Info("gRPC service started, listening for debug logs", zap.String("address", cfg.Server.GRPCAddress))
	if err := srv.Serve(listener); err != nil {
		zapLogger.Error("Failed to serve", zap.Error(err))
	}
	stopGrouping()
	<-pipeline.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := pipeline.Flush(ctx); err != nil {
		zapLogger.Error("Failed to flush ingest pipeline", zap.Error(err))
	}
}

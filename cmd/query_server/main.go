package main

import (
	"flag"
	"github.com/Avi18971911/DebugLens/internal/config"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/bootstrapper"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/client"
	groupingService "github.com/Avi18971911/DebugLens/internal/grouping/service"
	"github.com/Avi18971911/DebugLens/internal/logger"
	metadataService "github.com/Avi18971911/DebugLens/internal/metadata/service"
	parserService "github.com/Avi18971911/DebugLens/internal/parser/service"
	"github.com/Avi18971911/DebugLens/internal/pipeline/cache"
	"github.com/Avi18971911/DebugLens/internal/query_server/router"
	"github.com/Avi18971911/DebugLens/internal/query_server/service/report"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
	"log"
	"net/http"
)

// @title DebugLens API
// @version 1.0
// @description Analyzes Salesforce debug logs and reconstructs the user transactions they belong to.

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

	analysisCache, err := cache.NewAnalysisCache(cfg.Pipeline.CacheSize, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create analysis cache", zap.Error(err))
	}
	defer analysisCache.Close()

	parser := cache.NewCachingLogParser(
		parserService.NewLogParserService(cfg.ParserOptions(), zapLogger),
		analysisCache,
	)
	extractor := metadataService.NewMetadataExtractorService(metadataService.DefaultOptions(), zapLogger)
	grouper := groupingService.NewTransactionGrouperService(groupingService.DefaultOptions(), zapLogger)

	var reportService report.ReportQueryService
	if cfg.Elasticsearch.Enabled {
		es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.Elasticsearch.Addresses})
		if err != nil {
			zapLogger.Fatal("Failed to create elasticsearch client", zap.Error(err))
		}

		bs := bootstrapper.NewBootstrapper(es, zapLogger)
		err = bs.BootstrapElasticsearch()
		if err != nil {
			zapLogger.Fatal("Failed to bootstrap elasticsearch", zap.Error(err))
		}

		dc := client.NewDebugLensClientImpl(es, client.Wait)
		reportService = report.NewReportQueryService(dc, zapLogger)
	}

	r := router.CreateRouter(parser, extractor, grouper, reportService, zapLogger)
	zapLogger.Info("Starting query server", zap.String("address", cfg.Server.HTTPAddress))
	if err := http.ListenAndServe(cfg.Server.HTTPAddress, r); err != nil {
		zapLogger.Fatal("Failed to serve", zap.Error(err))
	}
}

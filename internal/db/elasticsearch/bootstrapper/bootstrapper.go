package bootstrapper

import (
	"bytes"
	"fmt"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"net/http"
	"strings"
	"time"
)

const retries = 30
const waitTime = 5

type Bootstrapper struct {
	esClient *elasticsearch.Client
	logger   *zap.Logger
}

func NewBootstrapper(esClient *elasticsearch.Client, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		esClient: esClient,
		logger:   logger,
	}
}

// BootstrapElasticsearch creates the indices and ingest pipeline used by the
// report sink. Indices that already exist are left untouched.
func (bs *Bootstrapper) BootstrapElasticsearch() error {
	if err := bs.waitForElasticsearch(retries, waitTime*time.Second); err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	if err := bs.createPipeline(ingestTimestampPipelineName, ingestTimestampPipeline); err != nil {
		return fmt.Errorf("error creating ingest timestamp pipeline: %w", err)
	}

	for _, index := range []struct {
		name       string
		definition map[string]interface{}
	}{
		{AnalysisIndexName, analysisIndex},
		{LogGroupIndexName, logGroupIndex},
	} {
		if err := bs.createIndex(index.name, index.definition); err != nil {
			return fmt.Errorf("error creating index %s: %w", index.name, err)
		}
		if err := bs.putSettings(index.name, ingestTimestampSettings); err != nil {
			return fmt.Errorf("error putting settings for index %s: %w", index.name, err)
		}
	}
	return nil
}

func (bs *Bootstrapper) waitForElasticsearch(maxRetries int, delay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		res, err := bs.esClient.Info()
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				bs.logger.Info("Elasticsearch is available")
				return nil
			}
		}
		bs.logger.Warn(
			"Elasticsearch not available, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
		)
		time.Sleep(delay)
	}
	return fmt.Errorf("elasticsearch is not available after %d attempts", maxRetries)
}

func (bs *Bootstrapper) createIndex(indexName string, index map[string]interface{}) error {
	body, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("error marshaling index input during bootstrap: %w", err)
	}

	res, err := bs.esClient.Indices.Create(
		indexName,
		bs.esClient.Indices.Create.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return fmt.Errorf("error creating index during bootstrap %s: %w", indexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if alreadyExists(res.String()) {
			bs.logger.Info("Index already exists", zap.String("index_name", indexName))
			return nil
		}
		return fmt.Errorf("error response for index %s: %s", indexName, res.String())
	}

	bs.logger.Info("Successfully created index", zap.String("index_name", indexName))
	return nil
}

func (bs *Bootstrapper) createPipeline(pipelineName string, pipeline map[string]interface{}) error {
	body, err := json.Marshal(pipeline)
	if err != nil {
		return fmt.Errorf("error marshaling pipeline input during bootstrap: %w", err)
	}

	res, err := bs.esClient.Ingest.PutPipeline(
		pipelineName,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("error creating pipeline during bootstrap %s: %w", pipelineName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error response for pipeline %s: %s", pipelineName, res.String())
	}

	bs.logger.Info("Successfully created pipeline", zap.String("pipeline_name", pipelineName))
	return nil
}

func (bs *Bootstrapper) putSettings(indexName string, settings map[string]interface{}) error {
	body, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings input during bootstrap: %w", err)
	}

	res, err := bs.esClient.Indices.PutSettings(
		bytes.NewReader(body),
		bs.esClient.Indices.PutSettings.WithIndex(indexName),
	)
	if err != nil {
		return fmt.Errorf("error putting settings during bootstrap %s: %w", indexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error response for settings %s: %s", indexName, res.String())
	}

	bs.logger.Info("Successfully put settings", zap.String("index_name", indexName))
	return nil
}

func alreadyExists(response string) bool {
	return strings.Contains(response, "resource_already_exists_exception")
}

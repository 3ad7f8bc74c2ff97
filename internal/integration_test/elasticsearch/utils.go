package elasticsearch

import (
	"bytes"
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/bootstrapper"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/goccy/go-json"
	"strings"
)

func deleteAllDocuments(es *elasticsearch.Client) error {
	indexes := []string{
		bootstrapper.AnalysisIndexName,
		bootstrapper.LogGroupIndexName,
	}

	queryJSON, err := json.Marshal(getAllQuery())
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}
	res, err := es.DeleteByQuery(indexes, bytes.NewReader(queryJSON), es.DeleteByQuery.WithRefresh(true))
	if err != nil {
		return fmt.Errorf("failed to delete documents by query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to delete documents by query: %s", res.String())
	}
	return nil
}

func refreshIndices(es *elasticsearch.Client) error {
	res, err := es.Indices.Refresh(
		es.Indices.Refresh.WithIndex(bootstrapper.AnalysisIndexName, bootstrapper.LogGroupIndexName),
	)
	if err != nil {
		return fmt.Errorf("failed to refresh indices: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to refresh indices: %s", res.String())
	}
	return nil
}

func getAllQuery() map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
	}
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}

package client

import (
	"context"
	"errors"
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/model"
	"github.com/goccy/go-json"
	"strings"
)

func (d *DebugLensClientImpl) Search(
	ctx context.Context,
	query string,
	indices []string,
	queryResultSize *int,
) ([]map[string]interface{}, error) {
	res, err := d.es.Search(
		d.es.Search.WithContext(ctx),
		d.es.Search.WithIndex(indices...),
		d.es.Search.WithBody(strings.NewReader(query)),
		d.es.Search.WithSize(getQuerySize(queryResultSize)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("failed to execute query: %s", res.String())
	}

	var esResponse model.SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	results := make([]map[string]interface{}, 0, len(esResponse.Hits.HitArray))
	for _, hit := range esResponse.Hits.HitArray {
		source := hit.Source
		if source == nil {
			source = map[string]interface{}{}
		}
		source["_id"] = hit.ID
		results = append(results, source)
	}
	return results, nil
}

func (d *DebugLensClientImpl) Count(
	ctx context.Context,
	query string,
	indices []string,
) (int64, error) {
	res, err := d.es.Count(
		d.es.Count.WithContext(ctx),
		d.es.Count.WithIndex(indices...),
		d.es.Count.WithBody(strings.NewReader(query)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("failed to execute query: %s", res.String())
	}

	var countResponse model.CountResponse
	if err := json.NewDecoder(res.Body).Decode(&countResponse); err != nil {
		return 0, fmt.Errorf("failed to decode response body: %w", err)
	}
	if failed := countResponse.Shards.Failed; failed > 0 {
		return 0, fmt.Errorf("%w: %d of %d", ErrShardsFailed, failed, countResponse.Shards.Total)
	}
	return countResponse.Count, nil
}

func getQuerySize(queryResultSize *int) int {
	if queryResultSize == nil || *queryResultSize <= 0 {
		return SearchResultSize
	}
	return *queryResultSize
}

var (
	ErrShardsFailed = errors.New("shards failed to answer")
)

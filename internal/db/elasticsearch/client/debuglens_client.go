package client

import (
	"context"
	"github.com/elastic/go-elasticsearch/v8"
)

const SearchResultSize = 10

// RefreshRate controls when written documents become searchable.
type RefreshRate string

const (
	// Wait blocks the write until a refresh has made it visible.
	Wait RefreshRate = "wait_for"
	// Immediate forces a refresh of the affected shards.
	Immediate RefreshRate = "true"
	// Async returns at once and leaves visibility to the periodic refresh.
	Async RefreshRate = "false"
)

// DebugLensClient is the narrow slice of Elasticsearch the report sink needs.
type DebugLensClient interface {
	// BulkIndex writes documents to index in one _bulk request. metaInfo[i]
	// carries the action metadata of documentInfo[i], usually its _id.
	BulkIndex(ctx context.Context, metaInfo []MetaMap, documentInfo []DocumentMap, index string) error
	Index(ctx context.Context, metaInfo MetaMap, documentInfo DocumentMap, index string) error
	// Search returns the _source of every hit with the hit's _id added.
	// A nil queryResultSize means SearchResultSize.
	Search(ctx context.Context, query string, indices []string, queryResultSize *int) ([]map[string]interface{}, error)
	Count(ctx context.Context, query string, indices []string) (int64, error)
}

type DebugLensClientImpl struct {
	es          *elasticsearch.Client
	refreshRate string
}

func NewDebugLensClientImpl(es *elasticsearch.Client, refreshRate RefreshRate) *DebugLensClientImpl {
	return &DebugLensClientImpl{es: es, refreshRate: string(refreshRate)}
}

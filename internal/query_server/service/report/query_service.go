package report

import (
	"context"
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/bootstrapper"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/client"
	esModel "github.com/Avi18971911/DebugLens/internal/db/elasticsearch/model"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"time"
)

const timeout = 10 * time.Second
const defaultQuerySize = 100
const maxQuerySize = 10000

type SearchParams struct {
	UserId            *string `json:"user_id,omitempty"`
	Grade             *string `json:"grade,omitempty"`
	TransactionFailed *bool   `json:"transaction_failed,omitempty"`
	StartTime         *string `json:"start_time,omitempty"`
	EndTime           *string `json:"end_time,omitempty"`
	Limit             int     `json:"limit,omitempty"`
}

// ReportQueryService reads stored analyses and transaction groups back out of
// the report sink.
type ReportQueryService interface {
	SearchAnalyses(ctx context.Context, params SearchParams) ([]esModel.AnalysisDocument, error)
	CountAnalyses(ctx context.Context, params SearchParams) (int64, error)
	SearchGroups(ctx context.Context, params SearchParams) ([]esModel.GroupDocument, error)
}

type ReportQueryServiceImpl struct {
	dc     client.DebugLensClient
	logger *zap.Logger
}

func NewReportQueryService(dc client.DebugLensClient, logger *zap.Logger) ReportQueryService {
	return &ReportQueryServiceImpl{
		dc:     dc,
		logger: logger,
	}
}

func (rqs *ReportQueryServiceImpl) SearchAnalyses(
	ctx context.Context,
	params SearchParams,
) ([]esModel.AnalysisDocument, error) {
	return search[esModel.AnalysisDocument](ctx, rqs.dc, getAnalysesQuery(params), bootstrapper.AnalysisIndexName, params.Limit)
}

func (rqs *ReportQueryServiceImpl) SearchGroups(
	ctx context.Context,
	params SearchParams,
) ([]esModel.GroupDocument, error) {
	return search[esModel.GroupDocument](ctx, rqs.dc, getGroupsQuery(params), bootstrapper.LogGroupIndexName, params.Limit)
}

func (rqs *ReportQueryServiceImpl) CountAnalyses(ctx context.Context, params SearchParams) (int64, error) {
	queryJson, err := json.Marshal(getCountQuery(params))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal count query: %w", err)
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	count, err := rqs.dc.Count(queryCtx, string(queryJson), []string{bootstrapper.AnalysisIndexName})
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

func search[T any](
	ctx context.Context,
	dc client.DebugLensClient,
	query map[string]interface{},
	index string,
	limit int,
) ([]T, error) {
	queryJson, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}
	querySize := clampLimit(limit)
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	hits, err := dc.Search(queryCtx, string(queryJson), []string{index}, &querySize)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", index, err)
	}
	return convertHits[T](hits)
}

func convertHits[T any](hits []map[string]interface{}) ([]T, error) {
	documents := make([]T, len(hits))
	for i, hit := range hits {
		hitBytes, err := json.Marshal(hit)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal search hit: %w", err)
		}
		if err := json.Unmarshal(hitBytes, &documents[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal search hit: %w", err)
		}
	}
	return documents, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultQuerySize
	}
	return min(limit, maxQuerySize)
}

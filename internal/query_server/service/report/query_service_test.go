package report

import (
	"context"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/bootstrapper"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/client"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"testing"
)

type stubClient struct {
	hits      []map[string]interface{}
	count     int64
	lastQuery string
	lastIndex []string
	lastSize  int
}

func (sc *stubClient) BulkIndex(ctx context.Context, metaInfo []client.MetaMap, documentInfo []client.DocumentMap, index string) error {
	return nil
}

func (sc *stubClient) Index(ctx context.Context, metaInfo client.MetaMap, documentInfo client.DocumentMap, index string) error {
	return nil
}

func (sc *stubClient) Search(ctx context.Context, query string, indices []string, queryResultSize *int) ([]map[string]interface{}, error) {
	sc.lastQuery = query
	sc.lastIndex = indices
	sc.lastSize = *queryResultSize
	return sc.hits, nil
}

func (sc *stubClient) Count(ctx context.Context, query string, indices []string) (int64, error) {
	sc.lastQuery = query
	sc.lastIndex = indices
	return sc.count, nil
}

func TestReportQueryService(t *testing.T) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	t.Run("should convert analysis hits into documents", func(t *testing.T) {
		stub := &stubClient{hits: []map[string]interface{}{
			{"_id": "a1", "name": "trigger.log", "grade": "F", "health_score": float64(40), "issue_codes": []interface{}{"TRANSACTION_FAILED"}},
		}}
		service := NewReportQueryService(stub, logger)
		grade := "F"

		documents, err := service.SearchAnalyses(context.Background(), SearchParams{Grade: &grade})

		require.NoError(t, err)
		require.Len(t, documents, 1)
		assert.Equal(t, "a1", documents[0].Id)
		assert.Equal(t, 40, documents[0].HealthScore)
		assert.Equal(t, []string{"TRANSACTION_FAILED"}, documents[0].IssueCodes)
		assert.Equal(t, []string{bootstrapper.AnalysisIndexName}, stub.lastIndex)
		assert.Equal(t, defaultQuerySize, stub.lastSize)
		assert.Contains(t, stub.lastQuery, `"grade":"F"`)
	})

	t.Run("should search groups in the group index", func(t *testing.T) {
		stub := &stubClient{hits: []map[string]interface{}{{"_id": "g1", "user_id": "005A"}}}
		service := NewReportQueryService(stub, logger)

		groups, err := service.SearchGroups(context.Background(), SearchParams{Limit: 20000})

		require.NoError(t, err)
		assert.Equal(t, "g1", groups[0].Id)
		assert.Equal(t, []string{bootstrapper.LogGroupIndexName}, stub.lastIndex)
		assert.Equal(t, maxQuerySize, stub.lastSize)
	})

	t.Run("should count without a sort clause", func(t *testing.T) {
		stub := &stubClient{count: 7}
		service := NewReportQueryService(stub, logger)
		failed := true

		count, err := service.CountAnalyses(context.Background(), SearchParams{TransactionFailed: &failed})

		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
		var query map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(stub.lastQuery), &query))
		assert.NotContains(t, query, "sort")
	})
}

func TestGetAnalysesQuery(t *testing.T) {
	t.Run("should match everything without filters", func(t *testing.T) {
		query := getAnalysesQuery(SearchParams{})

		assert.Equal(t, map[string]interface{}{"match_all": map[string]interface{}{}}, query["query"])
	})

	t.Run("should filter by user and time range", func(t *testing.T) {
		user := "005A"
		start := "2026-03-04T00:00:00Z"

		query := getAnalysesQuery(SearchParams{UserId: &user, StartTime: &start})

		filters := query["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]map[string]interface{})
		require.Len(t, filters, 2)
		assert.Equal(t, term("user_id", "005A"), filters[0])
		assert.Equal(t, map[string]interface{}{
			"range": map[string]interface{}{"parsed_at": map[string]interface{}{"gte": start}},
		}, filters[1])
	})
}

package bootstrapper

const AnalysisIndexName = "analysis_index"

var analysisIndex = map[string]interface{}{
	"settings": map[string]interface{}{
		"number_of_shards":   1,
		"number_of_replicas": 1,
	},
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"name":                  keyword(),
			"parsed_at":             date(),
			"ingested_at":           date(),
			"summary":               map[string]interface{}{"type": "text"},
			"user_id":               keyword(),
			"entry_point":           keyword(),
			"duration_ms":           double(),
			"cpu_time_ms":           double(),
			"soql_queries":          integer(),
			"dml_statements":        integer(),
			"error_count":           integer(),
			"duplicate_query_count": integer(),
			"max_depth":             integer(),
			"stack_risk":            keyword(),
			"health_score":          integer(),
			"grade":                 keyword(),
			"issue_codes":           keyword(),
			"transaction_failed":    boolean(),
			"is_log_truncated":      boolean(),
			"is_async_execution":    boolean(),
			"is_test_execution":     boolean(),
			"context":               keyword(),
		},
	},
}

func keyword() map[string]interface{} { return map[string]interface{}{"type": "keyword"} }
func date() map[string]interface{} { return map[string]interface{}{"type": "date"} }
func double() map[string]interface{} { return map[string]interface{}{"type": "double"} }
func integer() map[string]interface{} { return map[string]interface{}{"type": "integer"} }
func boolean() map[string]interface{} { return map[string]interface{}{"type": "boolean"} }

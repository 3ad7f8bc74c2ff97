package bootstrapper

const LogGroupIndexName = "log_group_index"

var logGroupIndex = map[string]interface{}{
	"settings": map[string]interface{}{
		"number_of_shards":   1,
		"number_of_replicas": 1,
	},
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"user_id":              keyword(),
			"record_id":            keyword(),
			"start":                date(),
			"end":                  date(),
			"ingested_at":          date(),
			"duration_ms":          double(),
			"log_names":            keyword(),
			"phase_types":          keyword(),
			"soql_queries":         integer(),
			"dml_statements":       integer(),
			"has_errors":           boolean(),
			"total_re_entries":     integer(),
			"mixed_context":        boolean(),
			"primary_context":      keyword(),
			"potential_savings_ms": double(),
			"frontend_loading":     keyword(),
			"recommendations":      map[string]interface{}{"type": "text"},
		},
	},
}

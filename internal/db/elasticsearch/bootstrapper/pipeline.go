package bootstrapper

const ingestTimestampPipelineName = "ingest_timestamp_pipeline"

var ingestTimestampPipeline = map[string]interface{}{
	"description": "Stamps every stored report with the time it reached the sink",
	"processors": []interface{}{
		map[string]interface{}{
			"set": map[string]interface{}{
				"field": "ingested_at",
				"value": "{{_ingest.timestamp}}",
			},
		},
	},
}

var ingestTimestampSettings = map[string]interface{}{
	"index": map[string]interface{}{
		"default_pipeline": ingestTimestampPipelineName,
	},
}

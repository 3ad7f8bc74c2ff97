package report

func getAnalysesQuery(params SearchParams) map[string]interface{} {
	var filterClauses []map[string]interface{}
	if params.UserId != nil {
		filterClauses = append(filterClauses, term("user_id", *params.UserId))
	}
	if params.Grade != nil {
		filterClauses = append(filterClauses, term("grade", *params.Grade))
	}
	if params.TransactionFailed != nil {
		filterClauses = append(filterClauses, term("transaction_failed", *params.TransactionFailed))
	}
	if timeRange := rangeClause("parsed_at", params.StartTime, params.EndTime); timeRange != nil {
		filterClauses = append(filterClauses, timeRange)
	}
	return boolQuery(filterClauses, "parsed_at")
}

func getGroupsQuery(params SearchParams) map[string]interface{} {
	var filterClauses []map[string]interface{}
	if params.UserId != nil {
		filterClauses = append(filterClauses, term("user_id", *params.UserId))
	}
	if timeRange := rangeClause("start", params.StartTime, params.EndTime); timeRange != nil {
		filterClauses = append(filterClauses, timeRange)
	}
	return boolQuery(filterClauses, "start")
}

func getCountQuery(params SearchParams) map[string]interface{} {
	query := getAnalysesQuery(params)
	delete(query, "sort")
	return query
}

func term(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{
			field: value,
		},
	}
}

func rangeClause(field string, start *string, end *string) map[string]interface{} {
	if start == nil && end == nil {
		return nil
	}
	bounds := map[string]interface{}{}
	if start != nil {
		bounds["gte"] = *start
	}
	if end != nil {
		bounds["lte"] = *end
	}
	return map[string]interface{}{
		"range": map[string]interface{}{
			field: bounds,
		},
	}
}

func boolQuery(filterClauses []map[string]interface{}, sortField string) map[string]interface{} {
	var query map[string]interface{}
	if len(filterClauses) == 0 {
		query = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		query = map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
			},
		}
	}
	return map[string]interface{}{
		"query": query,
		"sort": []map[string]interface{}{
			{sortField: map[string]interface{}{"order": "desc"}},
		},
	}
}

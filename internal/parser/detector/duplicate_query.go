package detector

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"regexp"
	"sort"
	"strings"
)

const minDuplicateCount = 2

var (
	quotedLiteral  = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)
	bindExpression = regexp.MustCompile(`:\s*[A-Za-z_][\w.]*(?:\(\))?`)
	inList         = regexp.MustCompile(`(?i)\bIN\s*\(([^()]*)\)`)
	numericLiteral = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// NormalizeQuery strips the values a loop would vary between iterations so
// that the same statement issued with different binds compares equal.
func NormalizeQuery(query string) string {
	normalized := quotedLiteral.ReplaceAllString(query, "?")
	normalized = bindExpression.ReplaceAllString(normalized, "?")
	normalized = inList.ReplaceAllStringFunc(normalized, func(match string) string {
		inner := inList.FindStringSubmatch(match)[1]
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(inner)), "SELECT") {
			return match
		}
		return "IN (?)"
	})
	normalized = numericLiteral.ReplaceAllString(normalized, "?")
	normalized = whitespace.ReplaceAllString(strings.TrimSpace(normalized), " ")
	return strings.ToLower(normalized)
}

// DetectDuplicateQueries groups SOQL operations by normalized text and returns
// the groups executed more than once, most executed first.
func DetectDuplicateQueries(ops []model.DatabaseOperation) []model.DuplicateQuery {
	groups := make(map[string]*model.DuplicateQuery)
	var order []string
	for _, op := range ops {
		if op.Type != model.OperationSOQL || op.Query == "" {
			continue
		}
		key := NormalizeQuery(op.Query)
		group, ok := groups[key]
		if !ok {
			group = &model.DuplicateQuery{
				NormalizedQuery: key,
				ExampleQuery:    op.Query,
				ObjectType:      op.ObjectType,
			}
			groups[key] = group
			order = append(order, key)
		}
		group.ExecutionCount++
		group.TotalDurationMs += op.DurationMs
		group.TotalRows += op.RowsAffected
	}

	duplicates := make([]model.DuplicateQuery, 0)
	for _, key := range order {
		if groups[key].ExecutionCount >= minDuplicateCount {
			duplicates = append(duplicates, *groups[key])
		}
	}
	sort.SliceStable(duplicates, func(i, j int) bool {
		if duplicates[i].ExecutionCount != duplicates[j].ExecutionCount {
			return duplicates[i].ExecutionCount > duplicates[j].ExecutionCount
		}
		if duplicates[i].TotalDurationMs != duplicates[j].TotalDurationMs {
			return duplicates[i].TotalDurationMs > duplicates[j].TotalDurationMs
		}
		return duplicates[i].NormalizedQuery < duplicates[j].NormalizedQuery
	})
	return duplicates
}

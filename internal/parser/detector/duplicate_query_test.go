package detector

import (
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func soql(query string, durationMs float64) model.DatabaseOperation {
	return model.DatabaseOperation{Type: model.OperationSOQL, Query: query, DurationMs: durationMs}
}

func TestNormalizeQuery(t *testing.T) {
	t.Run("should replace literals binds and in lists", func(t *testing.T) {
		assert.Equal(
			t,
			"select id from contact where accountid = ? and name = ? and id in (?) limit ?",
			NormalizeQuery("SELECT Id FROM Contact WHERE AccountId = :acc.Id AND Name = 'O\\'Brien'  AND Id IN ('a','b') LIMIT 10"),
		)
	})

	t.Run("should keep semi joins intact", func(t *testing.T) {
		assert.Equal(
			t,
			"select id from account where id in (select accountid from contact where id = ?)",
			NormalizeQuery("SELECT Id FROM Account WHERE Id IN (SELECT AccountId FROM Contact WHERE Id = '003')"),
		)
	})
}

func TestDetectDuplicateQueries(t *testing.T) {
	t.Run("should group six queries that differ only in the bind literal", func(t *testing.T) {
		var ops []model.DatabaseOperation
		for i := 0; i < 6; i++ {
			ops = append(ops, soql(fmt.Sprintf("SELECT Id, Name FROM Contact WHERE AccountId = '001%012d'", i), 1.5))
		}
		ops = append(ops, soql("SELECT Id FROM Account", 3))

		duplicates := DetectDuplicateQueries(ops)

		require.Len(t, duplicates, 1)
		assert.GreaterOrEqual(t, duplicates[0].ExecutionCount, 6)
		assert.Contains(t, duplicates[0].ExampleQuery, "Contact")
		assert.Equal(t, 9.0, duplicates[0].TotalDurationMs)
	})

	t.Run("should rank groups by execution count", func(t *testing.T) {
		ops := []model.DatabaseOperation{
			soql("SELECT Id FROM Lead WHERE Id = '1'", 1),
			soql("SELECT Id FROM Lead WHERE Id = '2'", 1),
			soql("SELECT Id FROM Case WHERE Id = '1'", 1),
			soql("SELECT Id FROM Case WHERE Id = '2'", 1),
			soql("SELECT Id FROM Case WHERE Id = '3'", 1),
			{Type: model.OperationDML, DMLVerb: "Insert", ObjectType: "Case"},
		}

		duplicates := DetectDuplicateQueries(ops)

		require.Len(t, duplicates, 2)
		assert.Equal(t, 3, duplicates[0].ExecutionCount)
		assert.Contains(t, duplicates[0].NormalizedQuery, "case")
		assert.Equal(t, 2, duplicates[1].ExecutionCount)
	})

	t.Run("should return an empty list when nothing repeats", func(t *testing.T) {
		assert.Empty(t, DetectDuplicateQueries([]model.DatabaseOperation{soql("SELECT Id FROM Account", 1)}))
	})
}

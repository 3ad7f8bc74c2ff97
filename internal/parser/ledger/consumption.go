package ledger

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"strings"
)

const customMetadataSuffix = "__mdt"

// ComputeHiddenConsumption subtracts the visible operations of each type from
// the authoritative counter. Only positive remainders are reported.
func ComputeHiddenConsumption(
	final model.GovernorLimitSnapshot,
	ops []model.DatabaseOperation,
) model.HiddenConsumption {
	var soql, sosl, dml int
	for _, op := range ops {
		switch op.Type {
		case model.OperationSOQL:
			soql++
		case model.OperationSOSL:
			sosl++
		case model.OperationDML:
			dml++
		}
	}
	return model.HiddenConsumption{
		Soql: positive(final.SoqlQueries.Used - soql),
		Sosl: positive(final.SoslQueries.Used - sosl),
		Dml:  positive(final.DmlStatements.Used - dml),
	}
}

// SplitCustomMetadata partitions the parsed SOQL operations. Queries against
// custom metadata types do not count towards the SOQL ceiling.
// regular + metadata always equals the number of SOQL operations.
func SplitCustomMetadata(ops []model.DatabaseOperation) (regular int, metadata int) {
	for _, op := range ops {
		if op.Type != model.OperationSOQL {
			continue
		}
		if IsCustomMetadataObject(op.ObjectType) {
			metadata++
		} else {
			regular++
		}
	}
	return regular, metadata
}

func IsCustomMetadataObject(objectType string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(objectType)), customMetadataSuffix)
}

func positive(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

package classifier

import "github.com/Avi18971911/DebugLens/internal/parser/model"

// knownCodes is the single table to extend when a new event code needs support.
var knownCodes = map[model.EventCode]model.EventCategory{
	model.ExecutionStarted:  model.CategoryExecution,
	model.ExecutionFinished: model.CategoryExecution,

	model.CodeUnitStarted:  model.CategoryCodeUnit,
	model.CodeUnitFinished: model.CategoryCodeUnit,

	model.MethodEntry:       model.CategoryMethod,
	model.MethodExit:        model.CategoryMethod,
	model.ConstructorEntry:  model.CategoryMethod,
	model.ConstructorExit:   model.CategoryMethod,
	model.SystemMethodEntry: model.CategoryMethod,
	model.SystemMethodExit:  model.CategoryMethod,

	model.SoqlExecuteBegin:   model.CategoryQuery,
	model.SoqlExecuteEnd:     model.CategoryQuery,
	model.SoqlExecuteExplain: model.CategoryQuery,
	model.SoslExecuteBegin:   model.CategoryQuery,
	model.SoslExecuteEnd:     model.CategoryQuery,

	model.DmlBegin: model.CategoryDML,
	model.DmlEnd:   model.CategoryDML,

	model.CalloutRequest:  model.CategoryCallout,
	model.CalloutResponse: model.CategoryCallout,

	model.FlowStartInterviewBegin: model.CategoryFlow,
	model.FlowStartInterviewEnd:   model.CategoryFlow,
	model.FlowElementError:        model.CategoryFlow,
	model.FlowElementFault:        model.CategoryFlow,

	model.ValidationRule:  model.CategoryValidation,
	model.ValidationPass:  model.CategoryValidation,
	model.ValidationFail:  model.CategoryValidation,
	model.ValidationError: model.CategoryValidation,

	model.ExceptionThrown: model.CategoryException,
	model.FatalError:      model.CategoryException,

	model.UserDebug: model.CategoryDebug,
	model.UserInfo:  model.CategoryIdentity,

	model.CumulativeLimitUsage:    model.CategoryLedger,
	model.CumulativeLimitUsageEnd: model.CategoryLedger,
	model.LimitUsageForNs:         model.CategoryLedger,
	model.TestingLimits:           model.CategoryLedger,
}

func CategoryOf(code model.EventCode) model.EventCategory {
	if category, ok := knownCodes[code]; ok {
		return category
	}
	return model.CategoryUnrecognized
}

package model

import "strings"

type EntryPointType string

const (
	EntryTrigger        EntryPointType = "Trigger"
	EntryFlow           EntryPointType = "Flow"
	EntryProcessBuilder EntryPointType = "ProcessBuilder"
	EntryValidation     EntryPointType = "Validation"
	EntryScheduled      EntryPointType = "Scheduled"
	EntryFuture         EntryPointType = "Future"
	EntryQueueable      EntryPointType = "Queueable"
	EntryBatch          EntryPointType = "Batch"
	EntryUIController   EntryPointType = "UIController"
	EntryIntegration    EntryPointType = "Integration"
	EntryAnonymous      EntryPointType = "Anonymous"
	EntryTest           EntryPointType = "Test"
	EntryUnknown        EntryPointType = "Unknown"
)

type ExecutionContext string

const (
	ContextInteractive ExecutionContext = "Interactive"
	ContextBatch       ExecutionContext = "Batch"
	ContextIntegration ExecutionContext = "Integration"
	ContextScheduled   ExecutionContext = "Scheduled"
	ContextAsync       ExecutionContext = "Async"
)

type entryRule struct {
	fragments []string
	entryType EntryPointType
}

// Order matters: the first rule with a matching fragment wins.
var entryRules = []entryRule{
	{fragments: []string{"apextesthandler", "apextest"}, entryType: EntryTest},
	{fragments: []string{" trigger event ", "__sfdc_trigger"}, entryType: EntryTrigger},
	{fragments: []string{"apex://", "vf:", "/apex/", "aura:", "lightning", "remoteaction"}, entryType: EntryUIController},
	{fragments: []string{"batchapex", "batch apex", "batchable"}, entryType: EntryBatch},
	{fragments: []string{"queueablehandler", "queueable"}, entryType: EntryQueueable},
	{fragments: []string{"futurehandler", "future handler"}, entryType: EntryFuture},
	{fragments: []string{"scheduledapex", "schedulable", "scheduler"}, entryType: EntryScheduled},
	{fragments: []string{"apexrest", "/services/", "apexsoap", "webservice"}, entryType: EntryIntegration},
	{fragments: []string{"processbuilder", "process builder", "workflow"}, entryType: EntryProcessBuilder},
	{fragments: []string{"flow:", "flow "}, entryType: EntryFlow},
	{fragments: []string{"validation"}, entryType: EntryValidation},
	{fragments: []string{"execute_anonymous"}, entryType: EntryAnonymous},
}

const AnonymousCodeUnit = "anonymous"

// CodeUnitName picks the name of a CODE_UNIT_STARTED line, skipping the line
// reference and any id fields. Unnamed units are AnonymousCodeUnit.
func CodeUnitName(fields []string) string {
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" || isBracketed(field) || IsSalesforceId(field) {
			continue
		}
		return field
	}
	return AnonymousCodeUnit
}

func isBracketed(field string) bool {
	return len(field) >= 2 && field[0] == '[' && field[len(field)-1] == ']'
}

// ClassifyEntryPoint infers what started a transaction from its first code unit name.
func ClassifyEntryPoint(name string) EntryPointType {
	lower := strings.ToLower(name)
	if strings.TrimSpace(lower) == "" {
		return EntryUnknown
	}
	for _, rule := range entryRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(lower, fragment) {
				return rule.entryType
			}
		}
	}
	return EntryUnknown
}

func (t EntryPointType) Context() ExecutionContext {
	switch t {
	case EntryBatch:
		return ContextBatch
	case EntryQueueable, EntryFuture:
		return ContextAsync
	case EntryScheduled:
		return ContextScheduled
	case EntryIntegration:
		return ContextIntegration
	default:
		return ContextInteractive
	}
}

func (t EntryPointType) IsAsync() bool {
	switch t {
	case EntryBatch, EntryQueueable, EntryFuture, EntryScheduled:
		return true
	}
	return false
}

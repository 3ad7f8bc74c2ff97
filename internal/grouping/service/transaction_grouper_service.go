package service

import (
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/grouping/model"
	metadataModel "github.com/Avi18971911/DebugLens/internal/metadata/model"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"sort"
	"strings"
	"time"
)

const DefaultWindow = 10 * time.Second

var groupNamespace = uuid.MustParse("6f0b6c1e-8d0a-4d2c-9a57-2b1f2f6e9c41")

type Options struct {
	TightenByRecordId      bool
	MinSequentialSavingsMs float64
	SlowAsyncMs            float64
}

func DefaultOptions() Options {
	return Options{
		TightenByRecordId:      true,
		MinSequentialSavingsMs: 500,
		SlowAsyncMs:            5000,
	}
}

type TransactionGrouperService interface {
	// Group clusters records of the same user whose start times fall within
	// window of the group's first log. A window of zero or less means DefaultWindow.
	Group(records []metadataModel.DebugLogMetadata, window time.Duration) []model.LogGroup
	BuildInteraction(
		records []metadataModel.DebugLogMetadata,
		analyses []*parserModel.LogAnalysis,
		window time.Duration,
	) model.Interaction
}

type TransactionGrouperServiceImpl struct {
	opts   Options
	logger *zap.Logger
}

func NewTransactionGrouperService(opts Options, logger *zap.Logger) TransactionGrouperService {
	return &TransactionGrouperServiceImpl{
		opts:   opts,
		logger: logger,
	}
}

func (tgs *TransactionGrouperServiceImpl) Group(
	records []metadataModel.DebugLogMetadata,
	window time.Duration,
) []model.LogGroup {
	if window <= 0 {
		window = DefaultWindow
	}
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := records[order[i]], records[order[j]]
		if a.UserId != b.UserId {
			return a.UserId < b.UserId
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return order[i] < order[j]
	})

	groups := make([]model.LogGroup, 0)
	var members []metadataModel.DebugLogMetadata
	recordId := ""
	flush := func() {
		if len(members) > 0 {
			groups = append(groups, tgs.buildGroup(members))
		}
		members = nil
		recordId = ""
	}
	for _, index := range order {
		record := records[index]
		if len(members) > 0 && !tgs.belongs(members[0], record, recordId, window) {
			flush()
		}
		members = append(members, record)
		if recordId == "" {
			recordId = record.RecordId
		}
	}
	flush()

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Start.Before(groups[j].Start)
	})
	tgs.logger.Debug("Grouped debug logs", zap.Int("logs", len(records)), zap.Int("groups", len(groups)))
	return groups
}

func (tgs *TransactionGrouperServiceImpl) belongs(
	first metadataModel.DebugLogMetadata,
	record metadataModel.DebugLogMetadata,
	groupRecordId string,
	window time.Duration,
) bool {
	if first.UserId != record.UserId {
		return false
	}
	if record.Timestamp.Sub(first.Timestamp) > window {
		return false
	}
	if tgs.opts.TightenByRecordId && groupRecordId != "" && record.RecordId != "" && record.RecordId != groupRecordId {
		return false
	}
	return true
}

func (tgs *TransactionGrouperServiceImpl) buildGroup(members []metadataModel.DebugLogMetadata) model.LogGroup {
	group := model.LogGroup{
		Id:              groupId(members),
		UserId:          members[0].UserId,
		Members:         members,
		ReEntries:       make(map[string]int),
		Recommendations: []string{},
	}
	group.Start, group.End = members[0].Window()
	for _, member := range members {
		start, end := member.Window()
		if start.Before(group.Start) {
			group.Start = start
		}
		if end.After(group.End) {
			group.End = end
		}
		if group.UserName == "" {
			group.UserName = member.UserName
		}
		if group.RecordId == "" {
			group.RecordId = member.RecordId
		}
		group.SoqlQueries += member.SoqlQueries
		group.DmlStatements += member.DmlStatements
		group.CpuTimeMs += member.CpuTimeMs
		group.HasErrors = group.HasErrors || member.HasErrors
	}
	group.DurationMs = millisBetween(group.Start, group.End)
	group.Phases = segmentPhases(members)

	tgs.detectLoadingPattern(&group)
	tgs.detectReEntries(&group)
	tgs.detectMixedContext(&group)
	tgs.recommend(&group)
	return group
}

func PhaseTypeOf(record metadataModel.DebugLogMetadata) model.PhaseType {
	switch record.EntryPointType {
	case parserModel.EntryUIController:
		return model.PhaseFrontend
	case parserModel.EntryQueueable, parserModel.EntryBatch:
		return model.PhaseAsync
	default:
		return model.PhaseBackend
	}
}

// segmentPhases puts members of the same phase type into one phase. Phases
// are ordered by start time and each records the gap until the next one.
func segmentPhases(members []metadataModel.DebugLogMetadata) []model.LogPhase {
	byType := make(map[model.PhaseType]*model.LogPhase)
	var order []model.PhaseType
	for _, member := range members {
		phaseType := PhaseTypeOf(member)
		start, end := member.Window()
		phase, ok := byType[phaseType]
		if !ok {
			phase = &model.LogPhase{Type: phaseType, Start: start, End: end}
			byType[phaseType] = phase
			order = append(order, phaseType)
		}
		if start.Before(phase.Start) {
			phase.Start = start
		}
		if end.After(phase.End) {
			phase.End = end
		}
		phase.LogNames = append(phase.LogNames, member.LogName)
		phase.SoqlQueries += member.SoqlQueries
		phase.DmlStatements += member.DmlStatements
		phase.CpuTimeMs += member.CpuTimeMs
	}

	phases := make([]model.LogPhase, 0, len(order))
	for _, phaseType := range order {
		phase := *byType[phaseType]
		phase.DurationMs = millisBetween(phase.Start, phase.End)
		phases = append(phases, phase)
	}
	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].Start.Before(phases[j].Start)
	})
	for i := 0; i+1 < len(phases); i++ {
		phases[i].GapToNextMs = max(0, millisBetween(phases[i].End, phases[i+1].Start))
	}
	return phases
}

// detectLoadingPattern decides whether the frontend requests ran one after
// another. Sequential loading could have finished in the time of the longest request.
func (tgs *TransactionGrouperServiceImpl) detectLoadingPattern(group *model.LogGroup) {
	var frontend []metadataModel.DebugLogMetadata
	for _, member := range group.Members {
		if PhaseTypeOf(member) == model.PhaseFrontend {
			frontend = append(frontend, member)
		}
	}
	if len(frontend) < 2 {
		return
	}
	sort.SliceStable(frontend, func(i, j int) bool {
		return frontend[i].Timestamp.Before(frontend[j].Timestamp)
	})

	var total, longest float64
	latestEnd := time.Time{}
	for i, member := range frontend {
		start, end := member.Window()
		if i > 0 && start.Before(latestEnd) {
			group.FrontendLoading = model.LoadingParallel
			group.PotentialSavingsMs = 0
			return
		}
		if end.After(latestEnd) {
			latestEnd = end
		}
		total += member.DurationMs
		longest = max(longest, member.DurationMs)
	}
	group.FrontendLoading = model.LoadingSequential
	group.PotentialSavingsMs = total - longest
}

func (tgs *TransactionGrouperServiceImpl) detectReEntries(group *model.LogGroup) {
	counts := make(map[string]int)
	for _, member := range group.Members {
		if member.EntryPoint != "" {
			counts[member.EntryPoint]++
		}
	}
	for name, count := range counts {
		if count > 1 {
			group.ReEntries[name] = count
			group.TotalReEntries += count - 1
		}
	}
}

// detectMixedContext finds the most common execution context, ties going
// to the one seen first.
func (tgs *TransactionGrouperServiceImpl) detectMixedContext(group *model.LogGroup) {
	counts := make(map[parserModel.ExecutionContext]int)
	for _, member := range group.Members {
		if counts[member.Context] == 0 {
			group.Contexts = append(group.Contexts, member.Context)
		}
		counts[member.Context]++
	}
	for _, context := range group.Contexts {
		if counts[context] > counts[group.PrimaryContext] {
			group.PrimaryContext = context
		}
	}
	group.MixedContext = len(group.Contexts) > 1
}

func (tgs *TransactionGrouperServiceImpl) recommend(group *model.LogGroup) {
	if group.TotalReEntries > 0 {
		names := make([]string, 0, len(group.ReEntries))
		for name := range group.ReEntries {
			names = append(names, name)
		}
		sort.Strings(names)
		group.Recommendations = append(group.Recommendations, fmt.Sprintf(
			"Automation ran more than once in this transaction (%s); add a recursion guard or narrow the entry criteria",
			strings.Join(names, ", "),
		))
	}
	if group.FrontendLoading == model.LoadingSequential && group.PotentialSavingsMs > tgs.opts.MinSequentialSavingsMs {
		group.Recommendations = append(group.Recommendations, fmt.Sprintf(
			"Page requests ran one after another; loading them in parallel could save about %.0f ms",
			group.PotentialSavingsMs,
		))
	}
	if slowest, ok := slowestAsync(group.Members); ok && slowest.DurationMs > tgs.opts.SlowAsyncMs {
		group.Recommendations = append(group.Recommendations, fmt.Sprintf(
			"Async job %s took %.0f ms; split it into smaller chunks or reduce the work per execution",
			nameOf(slowest), slowest.DurationMs,
		))
	}
	if group.MixedContext {
		for _, context := range group.Contexts {
			if context == group.PrimaryContext {
				continue
			}
			group.Recommendations = append(group.Recommendations, fmt.Sprintf(
				"User %s also ran %s work alongside %s activity; use a dedicated integration user for %s processes",
				userOf(*group), context, group.PrimaryContext, context,
			))
		}
	}
}

func (tgs *TransactionGrouperServiceImpl) BuildInteraction(
	records []metadataModel.DebugLogMetadata,
	analyses []*parserModel.LogAnalysis,
	window time.Duration,
) model.Interaction {
	interaction := model.Interaction{
		Analyses: analyses,
		Metadata: records,
		Groups:   tgs.Group(records, window),
	}
	for i, record := range records {
		start, end := record.Window()
		if i == 0 || start.Before(interaction.Start) {
			interaction.Start = start
		}
		if i == 0 || end.After(interaction.End) {
			interaction.End = end
		}
	}
	ids := make([]string, 0, len(interaction.Groups))
	for _, group := range interaction.Groups {
		ids = append(ids, group.Id)
	}
	interaction.Id = uuid.NewSHA1(groupNamespace, []byte("interaction|"+strings.Join(ids, "|"))).String()
	return interaction
}

func slowestAsync(members []metadataModel.DebugLogMetadata) (metadataModel.DebugLogMetadata, bool) {
	var slowest metadataModel.DebugLogMetadata
	found := false
	for _, member := range members {
		if PhaseTypeOf(member) != model.PhaseAsync {
			continue
		}
		if !found || member.DurationMs > slowest.DurationMs {
			slowest = member
			found = true
		}
	}
	return slowest, found
}

func groupId(members []metadataModel.DebugLogMetadata) string {
	var builder strings.Builder
	builder.WriteString(members[0].UserId)
	for _, member := range members {
		builder.WriteString("|")
		builder.WriteString(member.LogName)
		builder.WriteString("@")
		builder.WriteString(member.Timestamp.UTC().Format(time.RFC3339Nano))
	}
	return uuid.NewSHA1(groupNamespace, []byte(builder.String())).String()
}

func nameOf(record metadataModel.DebugLogMetadata) string {
	if record.EntryPoint != "" {
		return record.EntryPoint
	}
	return record.LogName
}

func userOf(group model.LogGroup) string {
	if group.UserName != "" {
		return group.UserName
	}
	if group.UserId != "" {
		return group.UserId
	}
	return "unknown"
}

func millisBetween(start time.Time, end time.Time) float64 {
	return float64(end.Sub(start)) / float64(time.Millisecond)
}

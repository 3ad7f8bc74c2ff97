package model

type IssueSeverity string

const (
	IssueCritical IssueSeverity = "Critical"
	IssueHigh     IssueSeverity = "High"
	IssueMedium   IssueSeverity = "Medium"
	IssueLow      IssueSeverity = "Low"
)

// Issue is one actionable finding. Priority 1 is the most urgent.
type Issue struct {
	Code            string        `json:"code"`
	Severity        IssueSeverity `json:"severity"`
	Problem         string        `json:"problem"`
	Impact          string        `json:"impact"`
	ImpactValue     float64       `json:"impact_value"`
	Fix             string        `json:"fix"`
	FixTimeMinutes  int           `json:"fix_time_minutes"`
	Priority        int           `json:"priority"`
	AdminFixable    bool          `json:"admin_fixable"`
	RequiresCodeFix bool          `json:"requires_code_fix"`
}

type HealthScore struct {
	Score        int     `json:"score"`
	Grade        string  `json:"grade"`
	Critical     []Issue `json:"critical"`
	HighPriority []Issue `json:"high_priority"`
	QuickWins    []Issue `json:"quick_wins"`
}

func (h HealthScore) IssueCount() int {
	return len(h.Critical) + len(h.HighPriority) + len(h.QuickWins)
}

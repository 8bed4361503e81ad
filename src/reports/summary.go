// Package reports derives execution summaries and renders agent exports.
package reports

import (
	"encoding/json"
	"fmt"

	"github.com/stake-plus/agentgpt/src/agents/core"
)

const (
	findingLimit = 200
	notAvailable = "N/A"
)

// Recommendation texts.
const (
	RecommendReviewFailures = "Review failed tasks and adjust agent parameters."
	RecommendSimplify       = "Consider reducing task complexity or adjusting AI model parameters."
	RecommendHarder         = "Agent performed well. Consider increasing task complexity for next run."
)

// Stats holds the counters of an execution summary.
type Stats struct {
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	FailedTasks    int    `json:"failed_tasks"`
	SuccessRate    string `json:"success_rate"`
	ExecutionTime  string `json:"execution_time"`
	FinalStatus    string `json:"final_status"`
}

// Metrics returns the stats as ordered label/value pairs for tabular renderers.
func (s Stats) Metrics() [][2]string {
	return [][2]string{
		{"Total Tasks", fmt.Sprint(s.TotalTasks)},
		{"Completed Tasks", fmt.Sprint(s.CompletedTasks)},
		{"Failed Tasks", fmt.Sprint(s.FailedTasks)},
		{"Success Rate", s.SuccessRate},
		{"Execution Time", s.ExecutionTime},
		{"Final Status", s.FinalStatus},
	}
}

// Finding pairs a completed task with its (possibly truncated) result.
type Finding struct {
	Task   string `json:"task"`
	Result string `json:"result"`
}

// Summary is derived from an agent's stored tasks; it is never persisted.
// The zero value represents an unknown agent and encodes as {}.
type Summary struct {
	Execution       Stats     `json:"execution_summary"`
	KeyFindings     []Finding `json:"key_findings"`
	Recommendations []string  `json:"recommendations"`

	found bool
}

// Empty reports whether the summary was produced for an unknown agent.
func (s Summary) Empty() bool { return !s.found }

func (s Summary) MarshalJSON() ([]byte, error) {
	if !s.found {
		return []byte("{}"), nil
	}
	type plain Summary
	return json.Marshal(plain(s))
}

// Summarize computes the summary for agent. A nil agent yields the empty summary.
func Summarize(agent *core.Agent) Summary {
	if agent == nil {
		return Summary{}
	}

	completed := agent.CountTasks(core.TaskCompleted)
	failed := agent.CountTasks(core.TaskFailed)
	total := len(agent.Tasks)
	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total) * 100
	}

	s := Summary{
		Execution: Stats{
			TotalTasks:     total,
			CompletedTasks: completed,
			FailedTasks:    failed,
			SuccessRate:    formatRate(total, rate),
			ExecutionTime:  agent.ExecutionTime,
			FinalStatus:    string(agent.Status),
		},
		KeyFindings:     []Finding{},
		Recommendations: []string{},
		found:           true,
	}
	if s.Execution.ExecutionTime == "" {
		s.Execution.ExecutionTime = notAvailable
	}

	for _, task := range agent.Tasks {
		if task.Status != core.TaskCompleted || task.Result == "" {
			continue
		}
		s.KeyFindings = append(s.KeyFindings, Finding{
			Task:   task.Text,
			Result: truncate(task.Result, findingLimit),
		})
	}

	if failed > 0 {
		s.Recommendations = append(s.Recommendations, RecommendReviewFailures)
	}
	if rate < 50 {
		s.Recommendations = append(s.Recommendations, RecommendSimplify)
	}
	if rate >= 80 {
		s.Recommendations = append(s.Recommendations, RecommendHarder)
	}
	return s
}

func formatRate(total int, rate float64) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", rate)
}

// truncate cuts s to limit runes, appending "..." only when something was removed.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Generator computes summaries for stored agents.
type Generator struct {
	store core.Store
}

// NewGenerator returns a Generator reading from store.
func NewGenerator(store core.Store) *Generator {
	return &Generator{store: store}
}

// Summary returns the summary for id, or the empty summary when id is unknown.
func (g *Generator) Summary(id string) Summary {
	agent, err := g.store.Get(id)
	if err != nil {
		return Summary{}
	}
	return Summarize(agent)
}

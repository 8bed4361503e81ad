package reports

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/stake-plus/agentgpt/src/agents/core"
)

const csvResultLimit = 100

func renderCSV(agent *core.Agent, opts Options, at time.Time) (string, error) {
	if agent == nil {
		return notFoundText, nil
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	rows := [][]string{
		{"AgentGPT Export", "Generated on: " + at.Format(bannerLayout)},
		{},
	}

	if opts.IncludeConfig {
		cfg := agent.Config
		rows = append(rows,
			[]string{"Agent Configuration"},
			[]string{"Name", cfg.Name},
			[]string{"Goal", cfg.Goal},
			[]string{"Provider", string(cfg.Provider)},
			[]string{"Model", cfg.Model},
			[]string{"Max Iterations", fmt.Sprint(cfg.MaxIterations)},
			[]string{"Temperature", formatTemperature(cfg.Temperature)},
			[]string{},
		)
	}

	if opts.IncludeTasks {
		rows = append(rows,
			[]string{"Tasks"},
			[]string{"ID", "Text", "Status", "Result", "Created At", "Updated At"},
		)
		for _, t := range agent.Tasks {
			rows = append(rows, []string{
				t.ID, t.Text, string(t.Status), truncate(t.Result, csvResultLimit),
				formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
			})
		}
		rows = append(rows, []string{})
	}

	if opts.IncludeLogs {
		rows = append(rows,
			[]string{"Execution Logs"},
			[]string{"Timestamp", "Type", "Message"},
		)
		for _, l := range agent.Logs {
			rows = append(rows, []string{formatTime(l.CreatedAt), string(l.LogType), l.Message})
		}
		rows = append(rows, []string{})
	}

	summary := Summarize(agent)
	rows = append(rows, []string{"Execution Summary"}, []string{"Metric", "Value"})
	for _, m := range summary.Execution.Metrics() {
		rows = append(rows, []string{m[0], m[1]})
	}
	rows = append(rows, []string{})

	if len(summary.KeyFindings) > 0 {
		rows = append(rows, []string{"Key Findings"})
		for _, f := range summary.KeyFindings {
			rows = append(rows, []string{f.Task, f.Result})
		}
		rows = append(rows, []string{})
	}

	if len(summary.Recommendations) > 0 {
		rows = append(rows, []string{"Recommendations"})
		for _, r := range summary.Recommendations {
			rows = append(rows, []string{r})
		}
	}

	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

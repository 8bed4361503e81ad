package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/stake-plus/agentgpt/src/agents/core"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 40)
)

func renderText(agent *core.Agent, opts Options, at time.Time) string {
	if agent == nil {
		return notFoundText
	}

	var out []string
	add := func(lines ...string) { out = append(out, lines...) }
	section := func(title string) { add(title, lightRule) }

	add(heavyRule, "AGENTGPT EXECUTION REPORT", heavyRule)
	add("Generated on: "+at.Format(bannerLayout), "")

	if opts.IncludeConfig {
		cfg := agent.Config
		section("AGENT CONFIGURATION")
		add(
			"Name: "+cfg.Name,
			"Goal: "+cfg.Goal,
			"Provider: "+string(cfg.Provider),
			"Model: "+cfg.Model,
			fmt.Sprintf("Max Iterations: %d", cfg.MaxIterations),
			"Temperature: "+formatTemperature(cfg.Temperature),
			"",
		)
	}

	if opts.IncludeTasks {
		section("TASKS EXECUTION")
		for i, t := range agent.Tasks {
			add(fmt.Sprintf("Task %d: %s", i+1, t.Text), "Status: "+string(t.Status))
			if t.Result != "" {
				add("Result: " + t.Result)
			}
			add("Created: "+formatTime(t.CreatedAt), "")
		}
	}

	if opts.IncludeLogs {
		section("EXECUTION LOGS")
		for _, l := range agent.Logs {
			add(fmt.Sprintf("[%s] %s: %s", formatTime(l.CreatedAt), strings.ToUpper(string(l.LogType)), l.Message))
		}
		add("")
	}

	summary := Summarize(agent)
	section("EXECUTION SUMMARY")
	for _, m := range summary.Execution.Metrics() {
		add(m[0] + ": " + m[1])
	}
	add("")

	if len(summary.KeyFindings) > 0 {
		section("KEY FINDINGS")
		for _, f := range summary.KeyFindings {
			add("• "+f.Task, "  "+f.Result, "")
		}
	}

	if len(summary.Recommendations) > 0 {
		section("RECOMMENDATIONS")
		for _, r := range summary.Recommendations {
			add("• " + r)
		}
		add("")
	}

	add(heavyRule)
	return strings.Join(out, "\n")
}

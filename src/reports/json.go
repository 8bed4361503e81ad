package reports

import (
	"encoding/json"
	"time"

	"github.com/stake-plus/agentgpt/src/agents/core"
)

type jsonExport struct {
	AgentConfig      *core.Config     `json:"agent_config,omitempty"`
	Tasks            *[]core.Task     `json:"tasks,omitempty"`
	Logs             *[]core.LogEntry `json:"logs,omitempty"`
	ExecutionSummary Summary          `json:"execution_summary"`
	ExportTimestamp  string           `json:"export_timestamp"`
}

func renderJSON(agent *core.Agent, opts Options, at time.Time) (string, error) {
	var doc any = map[string]string{"error": "Agent not found"}
	if agent != nil {
		out := jsonExport{
			ExecutionSummary: Summarize(agent),
			ExportTimestamp:  formatTime(at),
		}
		if opts.IncludeConfig {
			out.AgentConfig = &agent.Config
		}
		if opts.IncludeTasks {
			out.Tasks = &agent.Tasks
		}
		if opts.IncludeLogs {
			out.Logs = &agent.Logs
		}
		doc = out
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

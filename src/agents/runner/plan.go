package runner

import (
	"fmt"
	"time"
)

var taskTemplates = []string{
	"Research and analyze: %s",
	"Gather comprehensive information about: %s",
	"Provide detailed insights and findings about: %s",
	"Summarize key points and recommendations for: %s",
	"Generate final comprehensive report about: %s",
}

// Plan derives the ordered task texts for goal, truncated to maxIterations.
func Plan(goal string, maxIterations int) []string {
	n := len(taskTemplates)
	if maxIterations < n {
		n = maxIterations
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, 0, n)
	for _, tmpl := range taskTemplates[:n] {
		out = append(out, fmt.Sprintf(tmpl, goal))
	}
	return out
}

// FormatDuration renders elapsed time as "{m}m {s}s", dropping fractions.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

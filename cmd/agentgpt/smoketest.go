package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	aicore "github.com/stake-plus/agentgpt/src/ai/core"
	_ "github.com/stake-plus/agentgpt/src/ai/providers"
	"github.com/stake-plus/agentgpt/src/config"
	"github.com/stake-plus/agentgpt/src/webclient"
)

const (
	defaultGoal = "Assess the trade-offs of running inference on wafer-scale hardware."
	defaultTask = "Research and analyze: " + defaultGoal
)

var smoke struct {
	providers string
	model     string
	goal      string
	task      string
	timeout   time.Duration
	temp      float64
	maxBytes  int
}

var smoketestCmd = &cobra.Command{
	Use:   "smoketest",
	Short: "Send one task to each provider and print the reply",
	Long: "Keys are read from CEREBRAS_API_KEY and SAMBANOVA_API_KEY. Providers without " +
		"a key are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := config.Load(nil).Registry(defaultRegistry())
		ids, err := resolveProviders(reg, smoke.providers)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, id := range ids {
			if err := smokeProvider(cmd.Context(), reg, id); err != nil {
				fmt.Fprintf(out, "[%s] ERROR: %v\n", id, err)
			}
		}
		return nil
	},
}

func init() {
	f := smoketestCmd.Flags()
	f.StringVar(&smoke.providers, "providers", "all", "Comma-separated provider list or 'all'")
	f.StringVar(&smoke.model, "model", "", "Override model name (default: provider's first model)")
	f.StringVar(&smoke.goal, "goal", defaultGoal, "Agent goal sent as context")
	f.StringVar(&smoke.task, "task", defaultTask, "Task text")
	f.DurationVar(&smoke.timeout, "timeout", 45*time.Second, "Per-provider timeout")
	f.Float64Var(&smoke.temp, "temp", 0.2, "Completion temperature")
	f.IntVar(&smoke.maxBytes, "max-bytes", 1200, "Maximum bytes of output to print per response (0=unlimited)")
	rootCmd.AddCommand(smoketestCmd)
}

func defaultRegistry() aicore.Registry { return aicore.DefaultRegistry() }

func smokeProvider(parent context.Context, reg aicore.Registry, id aicore.ProviderID) error {
	key := os.Getenv(strings.ToUpper(string(id)) + "_API_KEY")
	if key == "" {
		fmt.Printf("=== %s === skipped (no key)\n", id)
		return nil
	}
	info, err := reg.Lookup(id)
	if err != nil {
		return err
	}
	model := smoke.model
	if model == "" {
		model = info.Models[0]
	}
	if !info.HasModel(model) {
		return fmt.Errorf("model %q not offered", model)
	}

	client, err := aicore.NewClient(aicore.FactoryConfig{
		Provider:   id,
		BaseURL:    info.BaseURL,
		APIKey:     key,
		HTTPClient: webclient.NewDefault(smoke.timeout),
	})
	if err != nil {
		return fmt.Errorf("client init: %w", err)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, smoke.timeout)
	defer cancel()

	start := time.Now()
	reply, err := client.ExecuteTask(ctx, smoke.goal, smoke.task, aicore.Options{Model: model, Temperature: smoke.temp})
	if err != nil {
		return err
	}
	fmt.Printf("=== %s (%s) ===\n", id, model)
	if reply.Degraded() {
		fmt.Printf("degraded (%.1fs): %s\n", time.Since(start).Seconds(), reply.Failure)
		return nil
	}
	fmt.Printf("ok (%.1fs)\n%s\n", time.Since(start).Seconds(), truncate(reply.Text, smoke.maxBytes))
	return nil
}

func resolveProviders(reg aicore.Registry, raw string) ([]aicore.ProviderID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return reg.IDs(), nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	var out []aicore.ProviderID
	seen := map[aicore.ProviderID]struct{}{}
	for _, p := range parts {
		id, err := aicore.ParseProvider(p)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return strings.TrimSpace(text)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return strings.TrimSpace(text[:cut]) + "...(truncated)"
}

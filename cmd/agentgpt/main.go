// Package main is the entry point for the AgentGPT API server and tooling.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "agentgpt",
	Short:         "Goal-driven AI agents over OpenAI-compatible providers",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

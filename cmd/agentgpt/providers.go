package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stake-plus/agentgpt/src/config"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured AI providers and their models",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := config.Load(nil).Registry(defaultRegistry())
		if err := reg.Validate(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, id := range reg.IDs() {
			info, _ := reg.Lookup(id)
			fmt.Fprintf(out, "%s  %s  %s\n", id, info.Name, info.BaseURL)
			fmt.Fprintf(out, "  %s\n", strings.Join(info.Models, "\n  "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hermes",
	Short: "Hermes - Anthropic-to-OpenAI protocol gateway",
	Long: `Hermes is a protocol gateway that accepts Anthropic Messages API traffic
and serves it from an OpenAI-style chat-completion backend.

It translates requests, responses, streaming events, and errors between the
two wire protocols, routing inbound model names to configured backend models
and reconstructing the Anthropic SSE event grammar from backend deltas.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}

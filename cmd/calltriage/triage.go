package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sirenlab/calltriage/internal/assess"
	"github.com/sirenlab/calltriage/internal/config"
	"github.com/sirenlab/calltriage/internal/policy"
	"github.com/sirenlab/calltriage/internal/transcriber"
	"github.com/sirenlab/calltriage/internal/tui"
)

func assessCmd() *cobra.Command {
	var rulesPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "assess [transcript]",
		Short: "Score a transcript against the active rule set",
		Long: `Score a transcript without a live session. The transcript comes from
the arguments, or from stdin when none are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript := strings.Join(args, " ")
			if transcript == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				transcript = string(data)
			}

			rules, err := loadRules(rulesPath)
			if err != nil {
				return err
			}

			report := assess.Assess(transcript, rules)
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(report)
			}
			fmt.Print(tui.RenderReport(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule file (defaults to the configured rule set)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw JSON report")

	return cmd
}

func rulesCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active triage rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(rulesPath)
			if err != nil {
				return err
			}
			fmt.Print(tui.RenderRules(rules))
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule file (defaults to the configured rule set)")

	return cmd
}

// loadRules resolves the rule set the same way the daemon does: an
// explicit path wins, otherwise the configured path, otherwise the
// built-in rules.
func loadRules(path string) ([]policy.Rule, error) {
	if path != "" {
		return policy.LoadRules(path)
	}

	cfg, err := config.LoadOrDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.LoadRuleSet()
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List transcription providers and their models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range transcriber.Providers() {
				info, _ := transcriber.Lookup(name)

				header := name
				if info.RequiresAPIKey {
					header += " (API key)"
				}
				fmt.Printf("\n%s - %s\n", header, info.Description)

				if len(info.Models) == 0 {
					fmt.Println("  any model name, the endpoint decides")
					continue
				}
				for _, m := range info.Models {
					line := "  " + m
					if m == info.DefaultModel {
						line += " (default)"
					}
					fmt.Println(line)
				}
			}
			fmt.Println()
			return nil
		},
	}
}

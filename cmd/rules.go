// Package cmd holds the CLI subcommands reachable from the main binary.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"watchtower/config"
	"watchtower/core"
	"watchtower/correlate"
)

// ruleFile is the on-disk YAML layout for custom pattern rules.
type ruleFile struct {
	Rules []core.PatternRule `yaml:"rules"`
}

// NewRulesCmd creates the `rules` command tree.
func NewRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate detection pattern rules",
	}
	rulesCmd.AddCommand(newListCmd())
	rulesCmd.AddCommand(newValidateCmd())
	return rulesCmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in pattern rules",
		Run: func(cmd *cobra.Command, _ []string) {
			bold := color.New(color.Bold)
			for _, rule := range correlate.BuiltinRules() {
				bold.Fprintf(cmd.OutOrStdout(), "%s", rule.Name)
				fmt.Fprintf(cmd.OutOrStdout(), "  [%s/%s]\n", severityColored(rule.Severity), rule.Action)
				if rule.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", rule.Description)
				}
				for _, cond := range rule.Conditions {
					line := fmt.Sprintf("  - %s %s %q", cond.Field, cond.Operator, cond.Value)
					if cond.IsAggregate() {
						line += fmt.Sprintf(" (%d in %dm)", cond.RequiredCount, cond.WindowMinutes)
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a YAML pattern rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading rule file: %w", err)
			}

			var file ruleFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parsing rule file: %w", err)
			}
			if len(file.Rules) == 0 {
				return fmt.Errorf("no rules found in %s", path)
			}

			// Registration against a throwaway registry runs the same
			// checks the live API applies, built-in name collisions
			// included.
			logger := zap.NewNop().Sugar()
			matchers, err := correlate.NewMatchers(config.EngineConfig{
				RegexTimeoutMs:   500,
				RegexMaxLength:   500,
				MatcherCacheSize: 64,
			}, logger)
			if err != nil {
				return err
			}
			registry, err := correlate.NewRegistry(matchers, logger)
			if err != nil {
				return err
			}

			ok := color.New(color.FgGreen)
			bad := color.New(color.FgRed, color.Bold)
			failures := 0
			for i := range file.Rules {
				rule := file.Rules[i]
				if err := registry.Add(&rule); err != nil {
					bad.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", rule.Name, err)
					failures++
					continue
				}
				ok.Fprintf(cmd.OutOrStdout(), "OK   %s\n", rule.Name)
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d rules failed validation", failures, len(file.Rules))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All %d rules valid\n", len(file.Rules))
			return nil
		},
	}
}

func severityColored(s core.Severity) string {
	switch s {
	case core.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint(strings.ToUpper(s.String()))
	case core.SeverityHigh:
		return color.RedString(s.String())
	case core.SeverityWarning, core.SeverityMedium:
		return color.YellowString(s.String())
	default:
		return color.CyanString(s.String())
	}
}

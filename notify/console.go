package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"watchtower/core"
)

// ConsoleChannel prints alerts to standard output with severity coloring.
// It is the default channel and the only one that needs no configuration.
type ConsoleChannel struct {
	out    io.Writer
	logger *zap.SugaredLogger
}

// NewConsoleChannel creates a console channel writing to stdout.
func NewConsoleChannel(logger *zap.SugaredLogger) *ConsoleChannel {
	return &ConsoleChannel{out: os.Stdout, logger: logger}
}

// Name implements Channel.
func (c *ConsoleChannel) Name() string { return "console" }

// Send implements Channel.
func (c *ConsoleChannel) Send(_ context.Context, alert *core.SecurityAlert) error {
	header := severityColor(alert.Severity)

	if _, err := header.Fprintf(c.out, "[%s] %s\n", strings.ToUpper(alert.Severity.String()), alert.Title); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "  alert: %s  kind: %s  fingerprint: %s\n", alert.AlertID, alert.Kind, alert.Fingerprint)
	if alert.Message != "" {
		fmt.Fprintf(c.out, "  %s\n", alert.Message)
	}
	if len(alert.AffectedIPs) > 0 {
		fmt.Fprintf(c.out, "  affected IPs: %s\n", strings.Join(alert.AffectedIPs, ", "))
	}
	return nil
}

func severityColor(s core.Severity) *color.Color {
	switch s {
	case core.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case core.SeverityHigh:
		return color.New(color.FgRed)
	case core.SeverityWarning, core.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// Package main is the entry point for the watchtower service.
package main

import (
	"fmt"
	"os"

	"watchtower/bootstrap"
	"watchtower/cmd"
)

func main() {
	// CLI subcommands run without starting the server.
	if len(os.Args) > 1 && os.Args[1] == "rules" {
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		if err := cmd.NewRulesCmd().Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	app, err := bootstrap.NewApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command tytanic runs a project's visual regression tests: it
// discovers tests under the project's tests/ directory, filters them
// with the test-filter expression language, drives each one through
// the compile/render/compare pipeline, and reports the results.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/typst-community/tytanic/internal/logger"
)

// Exit codes form part of the CLI contract and are relied on by CI
// wrappers.
const (
	exitOK = iota
	exitTestsFailed
	exitOperationFailed
	exitUnexpected
)

// exitError carries an exit code alongside an optional message. A
// zero-length message means the failure was already reported (e.g. by
// the run's reporter).
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	os.Exit(run())
}

func run() int {
	logger.SetupLogger()

	rootCmd := &cobra.Command{
		Use:           "tytanic",
		Short:         "tytanic - Visual regression test runner for typesetting projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool(verboseFlagName); verbose {
				logger.EnableDebugMode()
			}
		},
	}
	rootCmd.PersistentFlags().BoolP(verboseFlagName, "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().String(rootFlagName, ".", "project root directory")

	rootCmd.AddCommand(
		setupListCommand(),
		setupRunCommand(),
		setupUpdateCommand())

	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}

	var coded *exitError
	if errors.As(err, &coded) {
		if coded.msg != "" {
			fmt.Fprintln(os.Stderr, "Error:", coded.msg)
		}
		return coded.code
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	return exitUnexpected
}

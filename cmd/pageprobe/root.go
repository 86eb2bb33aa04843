package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pageprobe",
		Short: "Run browser acceptance tests against a static page",
		Long: `pageprobe opens a fixture page in Chrome and runs an ordered list of
acceptance cases against it, stopping at the first failure. Every case is
reported as PASSED, FAILED or NOT RUN.`,
		Version: version,
		// Errors are reported by main's exit status and the run report.
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "pageprobe version %s\n" .Version}}`)

	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cboone/pageprobe/internal/cdpdriver"
)

func newVersionCmd() *cobra.Command {
	var browser bool
	var chrome string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of pageprobe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pageprobe version %s\n", version)
			if !browser {
				return nil
			}

			if chrome == "" {
				chrome = os.Getenv("PAGEPROBE_CHROME")
			}
			b, err := cdpdriver.Launch(cmd.Context(), cdpdriver.Config{ExecPath: chrome, Headless: true})
			if err != nil {
				return err
			}
			defer b.Quit()

			v, err := b.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "browser %s\n", v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&browser, "browser", false, "also launch Chrome and print its version")
	cmd.Flags().StringVar(&chrome, "chrome", "", "Chrome binary (default $PAGEPROBE_CHROME, then a PATH search)")
	return cmd
}

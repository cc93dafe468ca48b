package main

import (
	"os"

	"github.com/jrsteele09/postureiq-client/internal/config"
	"github.com/jrsteele09/postureiq-client/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfg          config.Config
	quiet        bool
	printMetrics bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{cfg: config.New()}

	cmd := &cobra.Command{
		Use:   "postureiq",
		Short: "PostureIQ headless client",
		Long: `postureiq signs in to the PostureIQ identity provider and shows the
signed-in user's profile and 60 day activity heatmap from the terminal.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(os.Stderr, opts.cfg.GetLogLevel(), opts.cfg.GetEnv())
			if !opts.quiet {
				displayAppname(opts.cfg.GetAppName())
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the banner")
	cmd.PersistentFlags().BoolVar(&opts.printMetrics, "metrics", false, "Print client metrics after the command")

	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newLogoutCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newProfileCmd(opts))
	return cmd
}

package main

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			a, _, err := c.startApp(ctx, opts.cfg, opts.cfg.GetHomePath())
			if err != nil {
				return err
			}

			pterm.DefaultSection.Println("Authentication Status")
			snap := a.Session().Snapshot()
			if snap.Session == nil {
				pterm.Warning.Println("Not logged in")
			} else {
				navbar := a.Navbar(ctx)
				pterm.Success.Printf("Logged in as %s (%s)\n", navbar.Identity.DisplayName, snap.Session.Email)
				if !snap.Session.ExpiresAt.IsZero() {
					pterm.Info.Printf("Session expires at: %s\n", snap.Session.ExpiresAt.Format(time.RFC1123))
				}
			}
			if opts.printMetrics {
				return c.printMetrics()
			}
			return nil
		},
	}
}

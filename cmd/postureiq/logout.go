package main

import (
	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove stored credentials",
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
			if !a.Session().Snapshot().Authenticated() {
				pterm.Info.Println("Not logged in")
				return nil
			}

			err = a.SignOut(ctx, opts.cfg.GetHomePath())
			switch {
			case internalerrors.Is(err, internalerrors.ErrSignOutFailed):
				pterm.Warning.Printf("Signed out locally, but the provider could not be reached: %v\n", err)
			case err != nil:
				return err
			default:
				pterm.Success.Println("Signed out")
			}
			if opts.printMetrics {
				return c.printMetrics()
			}
			return nil
		},
	}
}

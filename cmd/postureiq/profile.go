package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/postureiq-client/activity"
	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/menu"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// heatmapColumns matches the 15 column grid of the web profile page.
const heatmapColumns = 15

func newProfileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in user's profile and activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			a, router, err := c.startApp(ctx, opts.cfg, menu.ProfilePath)
			if err != nil {
				return err
			}
			if router.CurrentPath() == opts.cfg.GetLoginPath() {
				return errors.New("not logged in, run `postureiq login` first")
			}

			view, err := a.LoadProfile(ctx)
			if internalerrors.Is(err, internalerrors.ErrNotLoggedIn) {
				return errors.New("not logged in, run `postureiq login` first")
			}
			if err != nil {
				return err
			}

			pterm.DefaultSection.Println(fmt.Sprintf("[%s] %s", view.Identity.AvatarInitial, view.Identity.DisplayName))
			pterm.Info.Printf("Email: %s\n", view.Email)
			if !view.Joined.IsZero() {
				pterm.Info.Printf("Joined: %s\n", view.Joined.Format("Mon Jan 02 2006"))
			}

			pterm.DefaultSection.Println("Login Activity (Last 60 Days)")
			if view.ActivityUnavailable {
				pterm.Warning.Println("Activity could not be loaded")
			}
			pterm.Println(renderHeatmap(view.Heatmap, heatmapColumns, pterm.FgGreen.Sprint("■"), pterm.FgGray.Sprint("□")))
			pterm.Info.Printf("%d active of %d days\n", view.ActiveDays, len(view.Heatmap))

			if opts.printMetrics {
				return c.printMetrics()
			}
			return nil
		},
	}
}

// renderHeatmap lays cells out in rows of width, oldest first.
func renderHeatmap(cells []activity.Cell, width int, active, inactive string) string {
	var b strings.Builder
	for i, row := range activity.Rows(cells, width) {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			if cell.Active {
				b.WriteString(active)
			} else {
				b.WriteString(inactive)
			}
		}
	}
	return b.String()
}

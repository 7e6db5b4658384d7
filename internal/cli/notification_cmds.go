package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newNotificationsCmd(app *App) *cobra.Command {
	var (
		markRead int
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show upcoming work anniversaries and mark them read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			markOne := cmd.Flags().Changed("mark-read")
			if markOne && all {
				return errors.New("--mark-read and --all cannot be combined")
			}
			return app.protected(cmd.Context(), func(ws *workspace) error {
				ctx := cmd.Context()
				if err := ws.notes.Refresh(ctx); err != nil {
					return err
				}
				switch {
				case all:
					if err := ws.notes.MarkAllAsRead(ctx); err != nil {
						return err
					}
				case markOne:
					if err := ws.notes.MarkAsRead(ctx, markRead); err != nil {
						return err
					}
				}

				list := ws.notes.Notifications()
				if len(list) == 0 {
					fmt.Fprintln(app.out, "No notifications")
					return nil
				}
				w := tabwriter.NewWriter(app.out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "\tID\tEMPLOYEE\tDATE\tYEARS")
				for _, n := range list {
					mark := "*"
					if n.Read {
						mark = ""
					}
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\n", mark, n.EmployeeID, n.FullName, n.AnniversaryDate, n.MilestoneYears)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(app.out, "\n%d unread\n", ws.notes.UnreadCount())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&markRead, "mark-read", 0, "mark the notification for this employee ID as read")
	cmd.Flags().BoolVar(&all, "all", false, "mark every notification as read")
	return cmd
}

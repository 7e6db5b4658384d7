package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/hr-dashboard/guard"
	"github.com/jrsteele09/hr-dashboard/users"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.public(cmd.Context(), func(ws *workspace) error {
				if decision := guard.Public(ws.session); decision.Outcome == guard.Redirect {
					fmt.Fprintf(app.out, "Already logged in as %s. Run 'hrctl logout' first.\n", ws.session.User().Username)
					return nil
				}

				var err error
				if username == "" {
					if username, err = app.prompt("Username: "); err != nil {
						return err
					}
				}
				if password == "" {
					if password, err = app.prompt("Password: "); err != nil {
						return err
					}
				}

				result := ws.session.Login(cmd.Context(), username, password)
				if !result.Success {
					return errors.New(result.Error)
				}
				user := ws.session.User()
				fmt.Fprintf(app.out, "Logged in as %s (%s)\n", user.Username, strings.Join(user.RoleNames(), ", "))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, prompted when empty")
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var reg users.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if reg.Password == "" {
				if reg.Password, err = app.prompt("Password: "); err != nil {
					return err
				}
			}
			if reg.ConfirmPassword == "" {
				if reg.ConfirmPassword, err = app.prompt("Confirm password: "); err != nil {
					return err
				}
			}
			if err := users.ValidateRegistration(reg); err != nil {
				return err
			}

			return app.public(cmd.Context(), func(ws *workspace) error {
				result := ws.session.Register(cmd.Context(), reg.Username, reg.Password, reg.Name)
				if !result.Success {
					return errors.New(result.Error)
				}
				fmt.Fprintf(app.out, "Registered and logged in as %s\n", ws.session.User().Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&reg.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&reg.Name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "password, prompted when empty")
	cmd.Flags().StringVar(&reg.ConfirmPassword, "confirm", "", "password confirmation, prompted when empty")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.public(cmd.Context(), func(ws *workspace) error {
				if !ws.session.IsAuthenticated() {
					fmt.Fprintln(app.out, "Not logged in")
					return nil
				}
				ws.session.Logout(cmd.Context())
				fmt.Fprintln(app.out, "Logged out")
				return nil
			})
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.public(cmd.Context(), func(ws *workspace) error {
				state := ws.session.State()
				fmt.Fprintf(app.out, "Backend:  %s\n", app.cfg.GetAPIURL())
				fmt.Fprintf(app.out, "Store:    %s\n", app.cfg.GetTokenStore())
				fmt.Fprintf(app.out, "Session:  %s\n", state.Phase)
				if state.User != nil {
					fmt.Fprintf(app.out, "User:     %s\n", state.User.Username)
				}
				if !state.AccessExpiry.IsZero() {
					fmt.Fprintf(app.out, "Expires:  %s\n", state.AccessExpiry.Local().Format(time.RFC1123))
				}
				return nil
			})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.protected(cmd.Context(), func(ws *workspace) error {
				user := ws.session.User()
				fmt.Fprintf(app.out, "Username: %s\n", user.Username)
				if user.Name != "" {
					fmt.Fprintf(app.out, "Name:     %s\n", user.Name)
				}
				fmt.Fprintf(app.out, "Roles:    %s\n", strings.Join(user.RoleNames(), ", "))

				var perms []string
				for p := range users.NewPermissionSet(user) {
					perms = append(perms, p.String())
				}
				sort.Strings(perms)
				fmt.Fprintln(app.out, "Permissions:")
				for _, p := range perms {
					fmt.Fprintf(app.out, "  %s\n", p)
				}
				return nil
			})
		},
	}
}

func newCanCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "can <resource> <action>",
		Short: "Check a permission, e.g. hrctl can employees read",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.protected(cmd.Context(), func(ws *workspace) error {
				if guard.Allow(ws.session, args[0], args[1]) {
					fmt.Fprintf(app.out, "allowed: %s:%s\n", args[0], args[1])
				} else {
					fmt.Fprintf(app.out, "denied: %s:%s\n", args[0], args[1])
				}
				return nil
			})
		},
	}
}

func newMenuCmd(app *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List the dashboard pages the user can open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.protected(cmd.Context(), func(ws *workspace) error {
				nav := guard.DefaultNavigation()
				if search != "" {
					matches := guard.SearchNavigation(ws.session, nav, search)
					if len(matches) == 0 {
						fmt.Fprintf(app.out, "No pages match %q\n", search)
						return nil
					}
					for _, item := range matches {
						fmt.Fprintf(app.out, "%-28s %s\n", label(item), item.Path)
					}
					return nil
				}

				for _, group := range guard.GroupNavigation(ws.session, nav) {
					fmt.Fprintln(app.out, group.Title)
					for _, item := range group.Items {
						fmt.Fprintf(app.out, "  %-24s %s\n", item.Title, item.Path)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "search page titles, categories and paths")
	return cmd
}

func label(item guard.NavItem) string {
	if item.Category == "" {
		return item.Title
	}
	return item.Category + " / " + item.Title
}

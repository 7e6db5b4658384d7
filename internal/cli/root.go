package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the hrctl command tree around app
func NewRootCommand(app *App) *cobra.Command {
	var profilePath, apiURL, store string

	root := &cobra.Command{
		Use:   "hrctl",
		Short: "HR dashboard from the terminal",
		Long: `hrctl logs in to the HR dashboard backend and keeps the session in the
configured token store, refreshing it as needed.

Settings come from the environment (API_URL, TOKEN_STORE, ...), then the
profile file, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			profile, err := LoadProfile(profilePath)
			if err != nil {
				return err
			}
			app.configure(profile, apiURL, store)
			return nil
		},
	}
	root.SetOut(app.out)

	root.PersistentFlags().StringVar(&profilePath, "profile", DefaultProfilePath(), "profile file")
	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL")
	root.PersistentFlags().StringVar(&store, "store", "", "token store: file, memory or redis")

	root.AddCommand(
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newWhoamiCmd(app),
		newCanCmd(app),
		newMenuCmd(app),
		newEmployeesCmd(app),
		newPayrollCmd(app),
		newAttendanceCmd(app),
		newReportCmd(app),
		newNotificationsCmd(app),
	)
	return root
}

// prompt reads one line from the App's input
func (a *App) prompt(label string) (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	fmt.Fprint(a.out, label)
	line, err := a.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

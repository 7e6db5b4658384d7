package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/hr-dashboard/hrapi"
	"github.com/jrsteele09/hr-dashboard/listview"
	"github.com/spf13/cobra"
)

// listFlags are shared by the list commands
type listFlags struct {
	search     string
	department string
	status     string
	month      string
	page       int
	perPage    int
	show       []string
	hide       []string
}

func (f *listFlags) register(cmd *cobra.Command, withMonth bool) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "match name, department, position or ID")
	cmd.Flags().StringVar(&f.department, "department", "", "only this department")
	cmd.Flags().StringVar(&f.status, "status", "", "only employees with this status")
	if withMonth {
		cmd.Flags().StringVarP(&f.month, "month", "m", "", "only this month, e.g. 5 or may")
	}
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.perPage, "per-page", listview.DefaultPerPage, "rows per page")
	cmd.Flags().StringSliceVar(&f.show, "show", nil, "extra columns to show")
	cmd.Flags().StringSliceVar(&f.hide, "hide", nil, "columns to hide")
}

// listing describes one list screen
type listing[T any] struct {
	noun    string
	fetch   func(*hrapi.Client, context.Context) ([]T, error)
	filter  func() listview.Filter[T]
	columns func() *listview.Columns
	row     func(T) map[string]string
	// summary prints totals over every matching row, may be nil
	summary func(app *App, matched []T)
}

func (l listing[T]) view(rows []T, f listFlags) (*listview.View[T], error) {
	month, err := hrapi.ParseMonth(f.month)
	if err != nil {
		return nil, err
	}
	view := listview.NewView(l.filter(), f.perPage, l.columns())
	view.SetRows(rows)
	view.SetQuery(f.search)
	view.Select(hrapi.FacetDepartment, f.department)
	view.Select(hrapi.FacetStatus, f.status)
	view.Select(hrapi.FacetMonth, month)
	view.SetPage(f.page)
	for _, key := range f.show {
		view.Columns.SetVisible(key, true)
	}
	for _, key := range f.hide {
		view.Columns.SetVisible(key, false)
	}
	return view, nil
}

func (l listing[T]) run(app *App, cmd *cobra.Command, f listFlags) error {
	return app.protected(cmd.Context(), func(ws *workspace) error {
		rows, err := l.fetch(ws.hr, cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", l.noun, err)
		}
		view, err := l.view(rows, f)
		if err != nil {
			return err
		}
		return l.print(app, view)
	})
}

func (l listing[T]) print(app *App, view *listview.View[T]) error {
	page := view.Current()
	if page.Matched == 0 {
		fmt.Fprintf(app.out, "No %s found\n", l.noun)
		return nil
	}

	w := tabwriter.NewWriter(app.out, 0, 0, 3, ' ', 0)
	labels := make([]string, 0, len(page.Columns))
	for _, col := range page.Columns {
		labels = append(labels, col.Label)
	}
	fmt.Fprintln(w, strings.Join(labels, "\t"))
	for _, r := range page.Rows {
		cells := l.row(r)
		line := make([]string, 0, len(page.Columns))
		for _, col := range page.Columns {
			line = append(line, cells[col.Key])
		}
		fmt.Fprintln(w, strings.Join(line, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	win := page.Window
	fmt.Fprintf(app.out, "\nShowing %d-%d of %d (page %d of %d)\n", win.StartItem, win.EndItem, page.Matched, win.Page, win.TotalPages)
	if l.summary != nil {
		l.summary(app, view.Filter.Apply(view.Rows()))
	}
	return nil
}

var employeeListing = listing[hrapi.Employee]{
	noun:    "employees",
	fetch:   (*hrapi.Client).Employees,
	filter:  hrapi.EmployeeFilter,
	columns: hrapi.EmployeeColumns,
	row:     hrapi.EmployeeRow,
}

var payrollListing = listing[hrapi.Payroll]{
	noun:    "payroll records",
	fetch:   (*hrapi.Client).Payroll,
	filter:  hrapi.PayrollFilter,
	columns: hrapi.PayrollColumns,
	row:     hrapi.PayrollRow,
	summary: func(app *App, matched []hrapi.Payroll) {
		t := hrapi.SumPayroll(matched)
		fmt.Fprintf(app.out, "Totals: base %.2f, bonus %.2f, deductions %.2f, net %.2f\n", t.BaseSalary, t.Bonus, t.Deductions, t.NetSalary)
	},
}

var attendanceListing = listing[hrapi.Attendance]{
	noun:    "attendance records",
	fetch:   (*hrapi.Client).Attendance,
	filter:  hrapi.AttendanceFilter,
	columns: hrapi.AttendanceColumns,
	row:     hrapi.AttendanceRow,
	summary: func(app *App, matched []hrapi.Attendance) {
		t := hrapi.SumAttendance(matched)
		fmt.Fprintf(app.out, "Totals: %d work days, %d absent, %d leave\n", t.WorkDays, t.AbsentDays, t.LeaveDays)
	},
}

func newEmployeesCmd(app *App) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "List employees",
		Long: `List employees one page at a time.

Examples:
  hrctl employees --search nguyen
  hrctl employees --department Engineering --status Active --page 2
  hrctl employees --show Gender,HireDate --hide Email`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return employeeListing.run(app, cmd, f)
		},
	}
	f.register(cmd, false)
	return cmd
}

func newPayrollCmd(app *App) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "payroll",
		Short: "List payroll records with totals",
		Long: `List payroll records one page at a time. Totals cover every matching
record, not only the current page.

Examples:
  hrctl payroll --month may
  hrctl payroll --department Finance --show Status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return payrollListing.run(app, cmd, f)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newAttendanceCmd(app *App) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "List monthly attendance with totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return attendanceListing.run(app, cmd, f)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Headcount by department and status, plus upcoming anniversaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.protected(cmd.Context(), func(ws *workspace) error {
				report, err := ws.hr.EmployeeReport(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load report: %w", err)
				}
				upcoming, err := ws.hr.EmployeeAnniversaries(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load anniversaries: %w", err)
				}

				w := tabwriter.NewWriter(app.out, 0, 0, 3, ' ', 0)
				fmt.Fprintf(w, "Total employees\t%d\n", report.TotalEmployees)
				fmt.Fprintln(w, "By department\t")
				for _, d := range report.ByDepartment {
					fmt.Fprintf(w, "  %s\t%d\n", d.DepartmentName, d.Count)
				}
				fmt.Fprintln(w, "By status\t")
				for _, s := range report.ByStatus {
					fmt.Fprintf(w, "  %s\t%d\n", s.Status, s.Count)
				}
				if len(upcoming) > 0 {
					fmt.Fprintln(w, "Upcoming anniversaries\t")
					for _, a := range upcoming {
						fmt.Fprintf(w, "  %s\t%s (%d years)\n", a.FullName, a.AnniversaryDate, a.MilestoneYears)
					}
				}
				return w.Flush()
			})
		},
	}
}

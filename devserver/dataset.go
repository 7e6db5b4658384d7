package devserver

import (
	"sort"
	"time"

	"github.com/jrsteele09/hr-dashboard/hrapi"
)

const (
	dateLayout = "2006-01-02"

	// AnniversaryWindow is how far ahead upcoming anniversaries are listed
	AnniversaryWindow = 30 * 24 * time.Hour
)

// Dataset holds the read-only HR records served by the backend
type Dataset struct {
	Departments []hrapi.Department
	Positions   []hrapi.Position
	Employees   []hrapi.Employee
	Payroll     []hrapi.Payroll
	Attendance  []hrapi.Attendance

	nowFunc func() time.Time
}

// DefaultDataset returns a small demo company
func DefaultDataset() *Dataset {
	departments := []hrapi.Department{
		{DepartmentID: 1, DepartmentName: "Engineering"},
		{DepartmentID: 2, DepartmentName: "Human Resources"},
		{DepartmentID: 3, DepartmentName: "Finance"},
	}
	positions := []hrapi.Position{
		{PositionID: 1, PositionName: "Engineer"},
		{PositionID: 2, PositionName: "Manager"},
		{PositionID: 3, PositionName: "Accountant"},
	}
	employees := []hrapi.Employee{
		{EmployeeID: 1, FullName: "Alice Nguyen", Gender: "Female", Email: "alice@example.com", HireDate: "2019-04-15", DepartmentID: 1, PositionID: 2, Status: "Active"},
		{EmployeeID: 2, FullName: "Bao Tran", Gender: "Male", Email: "bao@example.com", HireDate: "2021-11-02", DepartmentID: 1, PositionID: 1, Status: "Active"},
		{EmployeeID: 3, FullName: "Chi Le", Gender: "Female", Email: "chi@example.com", HireDate: "2020-06-20", DepartmentID: 2, PositionID: 2, Status: "Active"},
		{EmployeeID: 4, FullName: "Dung Pham", Gender: "Male", Email: "dung@example.com", HireDate: "2018-01-08", DepartmentID: 3, PositionID: 3, Status: "On Leave"},
		{EmployeeID: 5, FullName: "Em Vo", Gender: "Female", Email: "em@example.com", HireDate: "2023-03-13", DepartmentID: 1, PositionID: 1, Status: "Active"},
		{EmployeeID: 6, FullName: "Giang Hoang", Gender: "Male", Email: "giang@example.com", HireDate: "2017-09-25", DepartmentID: 3, PositionID: 2, Status: "Inactive"},
		{EmployeeID: 7, FullName: "Hanh Do", Gender: "Female", Email: "hanh@example.com", HireDate: "2022-07-01", DepartmentID: 2, PositionID: 1, Status: "Active"},
	}

	var payroll []hrapi.Payroll
	var attendance []hrapi.Attendance
	for m, month := range []string{"2024-04-01", "2024-05-01"} {
		for i, e := range employees {
			base := 1500.0 + float64(e.PositionID)*500
			bonus := float64((i+m)%3) * 100
			deductions := base * 0.1
			payroll = append(payroll, hrapi.Payroll{
				SalaryID:    len(payroll) + 1,
				EmployeeID:  e.EmployeeID,
				SalaryMonth: month,
				BaseSalary:  base,
				Bonus:       bonus,
				Deductions:  deductions,
				NetSalary:   base + bonus - deductions,
			})
			attendance = append(attendance, hrapi.Attendance{
				AttendanceID:    len(attendance) + 1,
				EmployeeID:      e.EmployeeID,
				AttendanceMonth: month,
				WorkDays:        22 - (i+m)%4,
				AbsentDays:      (i + m) % 2,
				LeaveDays:       (i + m) % 4,
			})
		}
	}

	return &Dataset{
		Departments: departments,
		Positions:   positions,
		Employees:   employees,
		Payroll:     payroll,
		Attendance:  attendance,
		nowFunc:     time.Now,
	}
}

// WithNow fixes the clock used for anniversaries
func (d *Dataset) WithNow(now func() time.Time) *Dataset {
	d.nowFunc = now
	return d
}

func (d *Dataset) now() time.Time {
	if d.nowFunc == nil {
		return time.Now()
	}
	return d.nowFunc()
}

// EmployeeList returns the employees with department and position joined
func (d *Dataset) EmployeeList() []hrapi.Employee {
	out := make([]hrapi.Employee, len(d.Employees))
	for i, e := range d.Employees {
		out[i] = d.join(e)
	}
	return out
}

func (d *Dataset) join(e hrapi.Employee) hrapi.Employee {
	for _, dep := range d.Departments {
		if dep.DepartmentID == e.DepartmentID {
			e.Department = &dep
			break
		}
	}
	for _, pos := range d.Positions {
		if pos.PositionID == e.PositionID {
			e.Position = &pos
			break
		}
	}
	return e
}

func (d *Dataset) employee(id int) *hrapi.Employee {
	for _, e := range d.Employees {
		if e.EmployeeID == id {
			joined := d.join(e)
			return &joined
		}
	}
	return nil
}

func (d *Dataset) PayrollList() []hrapi.Payroll {
	out := make([]hrapi.Payroll, len(d.Payroll))
	for i, p := range d.Payroll {
		p.Employee = d.employee(p.EmployeeID)
		out[i] = p
	}
	return out
}

func (d *Dataset) AttendanceList() []hrapi.Attendance {
	out := make([]hrapi.Attendance, len(d.Attendance))
	for i, a := range d.Attendance {
		a.Employee = d.employee(a.EmployeeID)
		out[i] = a
	}
	return out
}

// Anniversaries lists the work anniversaries falling within
// AnniversaryWindow, soonest first. Employees hired less than a year ago
// are skipped.
func (d *Dataset) Anniversaries() []hrapi.Anniversary {
	now := d.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	out := []hrapi.Anniversary{}
	for _, e := range d.Employees {
		hired, err := time.Parse(dateLayout, e.HireDate)
		if err != nil {
			continue
		}
		next := time.Date(today.Year(), hired.Month(), hired.Day(), 0, 0, 0, 0, time.UTC)
		if next.Before(today) {
			next = next.AddDate(1, 0, 0)
		}
		years := next.Year() - hired.Year()
		if years < 1 || next.Sub(today) > AnniversaryWindow {
			continue
		}
		out = append(out, hrapi.Anniversary{
			EmployeeID:      e.EmployeeID,
			FullName:        e.FullName,
			AnniversaryDate: next.Format(dateLayout),
			MilestoneYears:  years,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AnniversaryDate < out[j].AnniversaryDate
	})
	return out
}

// Report counts employees by department and status
func (d *Dataset) Report() hrapi.EmployeeReport {
	report := hrapi.EmployeeReport{TotalEmployees: len(d.Employees)}

	byDepartment := map[string]int{}
	byStatus := map[string]int{}
	for _, e := range d.EmployeeList() {
		byDepartment[e.DepartmentName()]++
		byStatus[e.Status]++
	}
	for name, count := range byDepartment {
		report.ByDepartment = append(report.ByDepartment, hrapi.DepartmentCount{DepartmentName: name, Count: count})
	}
	for status, count := range byStatus {
		report.ByStatus = append(report.ByStatus, hrapi.StatusCount{Status: status, Count: count})
	}
	sort.Slice(report.ByDepartment, func(i, j int) bool {
		return report.ByDepartment[i].DepartmentName < report.ByDepartment[j].DepartmentName
	})
	sort.Slice(report.ByStatus, func(i, j int) bool {
		return report.ByStatus[i].Status < report.ByStatus[j].Status
	})
	return report
}

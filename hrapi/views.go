package hrapi

import (
	"strconv"

	"github.com/jrsteele09/hr-dashboard/listview"
)

// Facet names shared by the list screens
const (
	FacetDepartment = "department"
	FacetStatus     = "status"
	// FacetMonth values are month numbers "1" to "12"
	FacetMonth = "month"
)

func employeeFields(e Employee) []string {
	return []string{
		e.FullName,
		e.Email,
		e.PhoneNumber,
		strconv.Itoa(e.EmployeeID),
		e.DepartmentName(),
		e.PositionName(),
	}
}

func employeeFacets() map[string]func(Employee) string {
	return map[string]func(Employee) string{
		FacetDepartment: Employee.DepartmentName,
		FacetStatus:     func(e Employee) string { return e.Status },
	}
}

// EmployeeFilter searches name, email, phone, ID, department and position
func EmployeeFilter() listview.Filter[Employee] {
	return listview.Filter[Employee]{Fields: employeeFields, Facets: employeeFacets()}
}

func EmployeeColumns() *listview.Columns {
	return listview.NewColumns([]listview.Column{
		{Key: "EmployeeID", Label: "ID"},
		{Key: "FullName", Label: "Full name"},
		{Key: "Gender", Label: "Gender"},
		{Key: "DepartmentName", Label: "Department"},
		{Key: "PositionName", Label: "Position"},
		{Key: "PhoneNumber", Label: "Phone"},
		{Key: "Email", Label: "Email"},
		{Key: "Status", Label: "Status"},
		{Key: "HireDate", Label: "Hire date"},
	}, "Gender", "HireDate")
}

// EmployeeRow renders the cell values of a row keyed by column
func EmployeeRow(e Employee) map[string]string {
	return map[string]string{
		"EmployeeID":     strconv.Itoa(e.EmployeeID),
		"FullName":       e.FullName,
		"Gender":         e.Gender,
		"DepartmentName": e.DepartmentName(),
		"PositionName":   e.PositionName(),
		"PhoneNumber":    e.PhoneNumber,
		"Email":          e.Email,
		"Status":         e.Status,
		"HireDate":       e.HireDate,
	}
}

func owner(e *Employee) Employee {
	if e == nil {
		return Employee{}
	}
	return *e
}

// PayrollFilter searches the employee's name, department, position and the salary ID
func PayrollFilter() listview.Filter[Payroll] {
	return listview.Filter[Payroll]{
		Fields: func(p Payroll) []string {
			e := owner(p.Employee)
			return []string{e.FullName, e.DepartmentName(), e.PositionName(), strconv.Itoa(p.SalaryID), p.SalaryMonth}
		},
		Facets: map[string]func(Payroll) string{
			FacetDepartment: func(p Payroll) string { return owner(p.Employee).DepartmentName() },
			FacetStatus:     func(p Payroll) string { return owner(p.Employee).Status },
			FacetMonth:      func(p Payroll) string { return MonthOf(p.SalaryMonth) },
		},
	}
}

func PayrollColumns() *listview.Columns {
	return listview.NewColumns([]listview.Column{
		{Key: "SalaryID", Label: "ID"},
		{Key: "FullName", Label: "Employee"},
		{Key: "DepartmentName", Label: "Department"},
		{Key: "PositionName", Label: "Position"},
		{Key: "SalaryMonth", Label: "Month"},
		{Key: "BaseSalary", Label: "Base salary"},
		{Key: "Bonus", Label: "Bonus"},
		{Key: "Deductions", Label: "Deductions"},
		{Key: "NetSalary", Label: "Net salary"},
		{Key: "Status", Label: "Status"},
	}, "PositionName", "Status")
}

func PayrollRow(p Payroll) map[string]string {
	e := owner(p.Employee)
	return map[string]string{
		"SalaryID":       strconv.Itoa(p.SalaryID),
		"FullName":       e.FullName,
		"DepartmentName": e.DepartmentName(),
		"PositionName":   e.PositionName(),
		"SalaryMonth":    p.SalaryMonth,
		"BaseSalary":     money(p.BaseSalary),
		"Bonus":          money(p.Bonus),
		"Deductions":     money(p.Deductions),
		"NetSalary":      money(p.NetSalary),
		"Status":         e.Status,
	}
}

// PayrollTotals sums the amount columns of rows
type PayrollTotals struct {
	BaseSalary float64
	Bonus      float64
	Deductions float64
	NetSalary  float64
}

func SumPayroll(rows []Payroll) PayrollTotals {
	var t PayrollTotals
	for _, p := range rows {
		t.BaseSalary += p.BaseSalary
		t.Bonus += p.Bonus
		t.Deductions += p.Deductions
		t.NetSalary += p.NetSalary
	}
	return t
}

func AttendanceFilter() listview.Filter[Attendance] {
	return listview.Filter[Attendance]{
		Fields: func(a Attendance) []string {
			e := owner(a.Employee)
			return []string{e.FullName, e.DepartmentName(), e.PositionName(), strconv.Itoa(a.AttendanceID), a.AttendanceMonth}
		},
		Facets: map[string]func(Attendance) string{
			FacetDepartment: func(a Attendance) string { return owner(a.Employee).DepartmentName() },
			FacetStatus:     func(a Attendance) string { return owner(a.Employee).Status },
			FacetMonth:      func(a Attendance) string { return MonthOf(a.AttendanceMonth) },
		},
	}
}

func AttendanceColumns() *listview.Columns {
	return listview.NewColumns([]listview.Column{
		{Key: "AttendanceID", Label: "ID"},
		{Key: "FullName", Label: "Employee"},
		{Key: "DepartmentName", Label: "Department"},
		{Key: "PositionName", Label: "Position"},
		{Key: "AttendanceMonth", Label: "Month"},
		{Key: "WorkDays", Label: "Work days"},
		{Key: "AbsentDays", Label: "Absent"},
		{Key: "LeaveDays", Label: "Leave"},
		{Key: "Status", Label: "Status"},
	}, "PositionName", "Status")
}

func AttendanceRow(a Attendance) map[string]string {
	e := owner(a.Employee)
	return map[string]string{
		"AttendanceID":    strconv.Itoa(a.AttendanceID),
		"FullName":        e.FullName,
		"DepartmentName":  e.DepartmentName(),
		"PositionName":    e.PositionName(),
		"AttendanceMonth": a.AttendanceMonth,
		"WorkDays":        strconv.Itoa(a.WorkDays),
		"AbsentDays":      strconv.Itoa(a.AbsentDays),
		"LeaveDays":       strconv.Itoa(a.LeaveDays),
		"Status":          e.Status,
	}
}

// AttendanceTotals sums the day columns of rows
type AttendanceTotals struct {
	WorkDays   int
	AbsentDays int
	LeaveDays  int
}

func SumAttendance(rows []Attendance) AttendanceTotals {
	var t AttendanceTotals
	for _, a := range rows {
		t.WorkDays += a.WorkDays
		t.AbsentDays += a.AbsentDays
		t.LeaveDays += a.LeaveDays
	}
	return t
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

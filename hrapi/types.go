package hrapi

// JSON names follow the backend's column names

type Department struct {
	DepartmentID   int    `json:"DepartmentID"`
	DepartmentName string `json:"DepartmentName"`
}

type Position struct {
	PositionID   int    `json:"PositionID"`
	PositionName string `json:"PositionName"`
}

type Employee struct {
	EmployeeID   int         `json:"EmployeeID"`
	FullName     string      `json:"FullName"`
	Gender       string      `json:"Gender,omitempty"`
	DateOfBirth  string      `json:"DateOfBirth,omitempty"`
	PhoneNumber  string      `json:"PhoneNumber,omitempty"`
	Email        string      `json:"Email,omitempty"`
	HireDate     string      `json:"HireDate,omitempty"`
	DepartmentID int         `json:"DepartmentID,omitempty"`
	PositionID   int         `json:"PositionID,omitempty"`
	Status       string      `json:"Status,omitempty"`
	Department   *Department `json:"department,omitempty"`
	Position     *Position   `json:"position,omitempty"`
}

func (e Employee) DepartmentName() string {
	if e.Department == nil {
		return ""
	}
	return e.Department.DepartmentName
}

func (e Employee) PositionName() string {
	if e.Position == nil {
		return ""
	}
	return e.Position.PositionName
}

type Anniversary struct {
	EmployeeID      int    `json:"EmployeeID"`
	FullName        string `json:"FullName"`
	AnniversaryDate string `json:"AnniversaryDate"`
	MilestoneYears  int    `json:"MilestoneYears"`
}

// Payroll amounts are passed through as the backend computed them
type Payroll struct {
	SalaryID    int       `json:"SalaryID"`
	EmployeeID  int       `json:"EmployeeID"`
	SalaryMonth string    `json:"SalaryMonth"`
	BaseSalary  float64   `json:"BaseSalary"`
	Bonus       float64   `json:"Bonus"`
	Deductions  float64   `json:"Deductions"`
	NetSalary   float64   `json:"NetSalary"`
	Employee    *Employee `json:"employee,omitempty"`
}

type Attendance struct {
	AttendanceID    int       `json:"AttendanceID"`
	EmployeeID      int       `json:"EmployeeID"`
	AttendanceMonth string    `json:"AttendanceMonth"`
	WorkDays        int       `json:"WorkDays"`
	AbsentDays      int       `json:"AbsentDays"`
	LeaveDays       int       `json:"LeaveDays"`
	Employee        *Employee `json:"employee,omitempty"`
}

type DepartmentCount struct {
	DepartmentName string `json:"DepartmentName"`
	Count          int    `json:"Count"`
}

type StatusCount struct {
	Status string `json:"Status"`
	Count  int    `json:"Count"`
}

type EmployeeReport struct {
	TotalEmployees int               `json:"total_employees"`
	ByDepartment   []DepartmentCount `json:"by_department"`
	ByStatus       []StatusCount     `json:"by_status"`
}

package devserver

// Route path constants
const (
	// Auth routes
	RouteAuthToken    = "/auth/token"
	RouteAuthRegister = "/auth/register"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthMe       = "/auth/me"

	// HR routes
	RouteEmployees     = "/hr/employees"
	RouteAnniversaries = "/hr/employees/anniversaries"
	RouteReport        = "/hr/report/employees"

	// Payroll routes
	RoutePayroll    = "/pr/payroll"
	RouteAttendance = "/pr/attendance"
)

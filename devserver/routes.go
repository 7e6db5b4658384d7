package devserver

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteAuthToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("GET "+RouteEmployees, ChainMiddleware(s.EmployeesHandler(), s.APIMiddleware(s.RequireAuth(), s.RequirePermission("employees", "read"))...))
	s.RegisterRouteHandler("GET "+RouteAnniversaries, ChainMiddleware(s.AnniversariesHandler(), s.APIMiddleware(s.RequireAuth(), s.RequirePermission("employees", "read"))...))
	s.RegisterRouteHandler("GET "+RouteReport, ChainMiddleware(s.ReportHandler(), s.APIMiddleware(s.RequireAuth(), s.RequirePermission("employees", "read"))...))
	s.RegisterRouteHandler("GET "+RoutePayroll, ChainMiddleware(s.PayrollHandler(), s.APIMiddleware(s.RequireAuth(), s.RequirePermission("salaries", "read"))...))
	s.RegisterRouteHandler("GET "+RouteAttendance, ChainMiddleware(s.AttendanceHandler(), s.APIMiddleware(s.RequireAuth(), s.RequirePermission("attendances", "read"))...))

	s.RegisterRouteFunc("OPTIONS /", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}

package devserver

import (
	"net/http"
)

func (s *Server) EmployeesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, s.data.EmployeeList())
	}
}

func (s *Server) AnniversariesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{"upcoming_anniversaries": s.data.Anniversaries()})
	}
}

func (s *Server) ReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, s.data.Report())
	}
}

func (s *Server) PayrollHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, s.data.PayrollList())
	}
}

func (s *Server) AttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, s.data.AttendanceList())
	}
}

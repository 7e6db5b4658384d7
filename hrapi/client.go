// Package hrapi reads the dashboard's HR and payroll resources. Every call
// goes through the refreshing apiclient, so an expired access token is
// renewed transparently.
package hrapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/hr-dashboard/apiclient"
)

const (
	EmployeesPath     = "/hr/employees"
	AnniversariesPath = "/hr/employees/anniversaries"
	ReportPath        = "/hr/report/employees"
	PayrollPath       = "/pr/payroll"
	AttendancePath    = "/pr/attendance"

	statusSuccess = "success"
)

var ErrUnsuccessful = errors.New("backend reported failure")

// Getter is satisfied by *apiclient.Client
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

var _ Getter = (*apiclient.Client)(nil)

type Client struct {
	api Getter
}

func New(api Getter) *Client {
	return &Client{api: api}
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

func get[T any](ctx context.Context, api Getter, path string) (T, error) {
	var body envelope[T]
	if err := api.Get(ctx, path, &body); err != nil {
		var zero T
		return zero, err
	}
	if body.Status != statusSuccess {
		var zero T
		if body.Message != "" {
			return zero, fmt.Errorf("%s: %w: %s", path, ErrUnsuccessful, body.Message)
		}
		return zero, fmt.Errorf("%s: %w", path, ErrUnsuccessful)
	}
	return body.Data, nil
}

func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	return get[[]Employee](ctx, c.api, EmployeesPath)
}

func (c *Client) EmployeeAnniversaries(ctx context.Context) ([]Anniversary, error) {
	data, err := get[struct {
		Upcoming []Anniversary `json:"upcoming_anniversaries"`
	}](ctx, c.api, AnniversariesPath)
	if err != nil {
		return nil, err
	}
	return data.Upcoming, nil
}

func (c *Client) Payroll(ctx context.Context) ([]Payroll, error) {
	return get[[]Payroll](ctx, c.api, PayrollPath)
}

func (c *Client) Attendance(ctx context.Context) ([]Attendance, error) {
	return get[[]Attendance](ctx, c.api, AttendancePath)
}

func (c *Client) EmployeeReport(ctx context.Context) (*EmployeeReport, error) {
	report, err := get[EmployeeReport](ctx, c.api, ReportPath)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

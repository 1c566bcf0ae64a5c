package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

type stubJobs struct {
	jobs  map[string]*domain.Job
	calls int
}

func (s *stubJobs) FindJob(_ context.Context, jobID string) (*domain.Job, error) {
	s.calls++
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("find job %q: %w", jobID, domain.ErrJobNotFound)
	}
	return job, nil
}

func TestJobMembership(t *testing.T) {
	jobs := &stubJobs{jobs: map[string]*domain.Job{
		"job-1": {ID: "job-1", CustomerID: "c-1", MechanicID: "m-1", Status: domain.JobInProgress},
	}}

	tests := []struct {
		name    string
		jobID   string
		role    string
		userID  string
		wantErr error
		lookups int
	}{
		{"customer on own job", "job-1", RoleCustomer, "c-1", nil, 1},
		{"mechanic on own job", "job-1", RoleMechanic, "m-1", nil, 1},
		{"customer on someone else's job", "job-1", RoleCustomer, "c-2", domain.ErrForbidden, 1},
		{"mechanic id with customer role", "job-1", RoleCustomer, "m-1", domain.ErrForbidden, 1},
		{"participant without user id", "job-1", RoleMechanic, "", domain.ErrForbidden, 1},
		{"unknown job", "job-404", RoleMechanic, "m-1", domain.ErrJobNotFound, 1},
		{"admin skips lookup", "job-1", RoleAdmin, "ops-1", nil, 0},
		{"service skips lookup", "job-404", RoleService, "", nil, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			jobs.calls = 0
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			c.SetParamNames("job_id")
			c.SetParamValues(tc.jobID)
			c.Set(CtxRole, tc.role)
			c.Set(CtxUserID, tc.userID)

			called := false
			err := JobMembership(jobs)(func(echo.Context) error {
				called = true
				return nil
			})(c)

			if tc.wantErr == nil {
				if err != nil || !called {
					t.Fatalf("expected pass-through, got err=%v called=%v", err, called)
				}
			} else {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if called {
					t.Fatal("next must not run when membership fails")
				}
			}
			if jobs.calls != tc.lookups {
				t.Fatalf("expected %d lookups, got %d", tc.lookups, jobs.calls)
			}
		})
	}
}

func TestJobMembership_NilDirectoryPassesThrough(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(CtxRole, RoleCustomer)
	c.Set(CtxUserID, "anyone")

	called := false
	if err := JobMembership(nil)(func(echo.Context) error {
		called = true
		return nil
	})(c); err != nil || !called {
		t.Fatalf("expected pass-through, got err=%v called=%v", err, called)
	}
}

package ledger

import (
	"context"
	"net/http"

	"kvitt/internal/services"
)

// Campus is one entry of the campus directory.
type Campus struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Department is one entry of a campus's department directory.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Campuses lists the campuses expenses can be assigned to.
func (c *Client) Campuses(ctx context.Context) ([]Campus, error) {
	var decoded struct {
		Campuses []Campus `json:"campuses"`
	}
	if err := c.do(ctx, http.MethodGet, "/campuses", nil, &decoded); err != nil {
		return nil, err
	}
	return decoded.Campuses, nil
}

// Departments lists the departments under a campus.
func (c *Client) Departments(ctx context.Context, campusID string) ([]Department, error) {
	if campusID == "" {
		return nil, services.Wrap(services.ErrValidation, "ledger", "departments", "campus id is required", nil)
	}
	var decoded struct {
		Departments []Department `json:"departments"`
	}
	if err := c.do(ctx, http.MethodGet, "/campuses/"+campusID+"/departments", nil, &decoded); err != nil {
		return nil, err
	}
	return decoded.Departments, nil
}

// ResolveAssignment validates a campus/department pair against the
// directory and returns the display names for both halves.
func (c *Client) ResolveAssignment(ctx context.Context, campusID, departmentID string) (campusName, departmentName string, err error) {
	campuses, err := c.Campuses(ctx)
	if err != nil {
		return "", "", err
	}
	for _, campus := range campuses {
		if campus.ID != campusID {
			continue
		}
		departments, err := c.Departments(ctx, campusID)
		if err != nil {
			return "", "", err
		}
		for _, dept := range departments {
			if dept.ID == departmentID {
				return campus.Name, dept.Name, nil
			}
		}
		return "", "", services.Wrap(services.ErrNotFound, "ledger", "resolve assignment", "department "+departmentID+" not found under campus "+campusID, nil)
	}
	return "", "", services.Wrap(services.ErrNotFound, "ledger", "resolve assignment", "campus "+campusID+" not found", nil)
}

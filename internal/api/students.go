package api

import (
	"context"
	"net/http"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

// ListStudents returns every student.
func (c *Client) ListStudents(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	if err := c.doJSON(ctx, http.MethodGet, c.studentsPath, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// GetStudent returns one student.
func (c *Client) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var s model.Student
	if err := c.doJSON(ctx, http.MethodGet, itemPath(c.studentsPath, id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateStudent posts a new student and returns the stored record.
func (c *Client) CreateStudent(ctx context.Context, s model.Student) (*model.Student, error) {
	s.ID = ""
	var created model.Student
	if err := c.doJSON(ctx, http.MethodPost, c.studentsPath, s, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateStudent replaces a student and returns the stored record.
func (c *Client) UpdateStudent(ctx context.Context, id string, s model.Student) (*model.Student, error) {
	s.ID = model.ID(id)
	var updated model.Student
	if err := c.doJSON(ctx, http.MethodPut, itemPath(c.studentsPath, id), s, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteStudent removes a student.
func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath(c.studentsPath, id), "", nil)
	return err
}

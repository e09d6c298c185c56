// Package students is the Student Record Workflow: list, read, create,
// update and delete students through the student API, plus the pages that
// drive them. Every route is behind the auth guard.
package students

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/validation"
)

// Genders are the options offered by the gender select. Gender is optional.
var Genders = []string{"Male", "Female", "Other"}

// Student is one student record as the frontend uses it. The API owns the
// ID; the frontend never generates one.
type Student struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	Gender      string
	DateOfBirth string
}

// FullName joins first and last name for display.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// formFor prefills the student form from an existing record.
func formFor(s Student) validation.Student {
	return validation.Student{
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		Gender:      s.Gender,
		DateOfBirth: s.DateOfBirth,
	}
}

// --- Upstream payloads ---

// studentPayload is the create/update body.
type studentPayload struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
}

func payloadFor(form validation.Student) studentPayload {
	return studentPayload{
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		Email:       form.Email,
		Gender:      form.Gender,
		DateOfBirth: form.DateOfBirth,
	}
}

// studentRecord is a student as the API sends it.
type studentRecord struct {
	ID          gateway.ID `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Gender      string     `json:"gender"`
	DateOfBirth string     `json:"date_of_birth"`
}

// decodeStudent is the single decoder for one student response body.
func decodeStudent(data []byte) (Student, error) {
	var rec studentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Student{}, fmt.Errorf("decoding student: %w", err)
	}
	return rec.toStudent()
}

// decodeStudents decodes a list response: a JSON array of students.
func decodeStudents(data []byte) ([]Student, error) {
	var recs []studentRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding student list: %w", err)
	}

	out := make([]Student, 0, len(recs))
	for i, rec := range recs {
		s, err := rec.toStudent()
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r studentRecord) toStudent() (Student, error) {
	switch {
	case r.ID == "":
		return Student{}, errors.New("student record has no id")
	case r.FirstName == "":
		return Student{}, errors.New("student record has no first_name")
	case r.LastName == "":
		return Student{}, errors.New("student record has no last_name")
	case r.Email == "":
		return Student{}, errors.New("student record has no email")
	}

	return Student{
		ID:          r.ID.String(),
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Gender:      r.Gender,
		DateOfBirth: dateOnly(r.DateOfBirth),
	}, nil
}

// dateOnly cuts a timestamp such as "2001-02-03T00:00:00Z" to its date.
func dateOnly(s string) string {
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		return s[:10]
	}
	return s
}

// --- Views (rendered by the templates package) ---

// FormView backs the add and edit forms.
type FormView struct {
	Title   string
	Action  string
	Cancel  string
	Submit  string
	Form    validation.Student
	Errors  *validation.Errors
	Banner  string
	Genders []string
}

// DeleteView backs the delete confirmation modal.
type DeleteView struct {
	Action string
	Banner string
}

// ListView backs the student list. Add is set while the add modal is open.
type ListView struct {
	Students []Student
	Banner   string
	Add      *FormView
}

// DetailView backs the student detail. Edit opens the side panel, Delete the
// confirmation modal.
type DetailView struct {
	Student Student
	Edit    *FormView
	Delete  *DeleteView
}

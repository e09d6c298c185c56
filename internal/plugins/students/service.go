package students

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/keyxmakerx/studentdesk/internal/apperror"
	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/validation"
)

// Upstream endpoints.
const (
	pathStudents   = "/api/v1/students"
	pathAddStudent = "/api/v1/students/add-student"
)

const (
	msgDuplicateEmail = "Student with the same email already exists"
	msgSessionExpired = "Your session has expired. Please log in again."
	msgDOBInvalid     = "Date of birth must be a valid date"
	msgDOBRange       = "Date of birth must be between 1900-01-01 and today"
	dateLayout        = "2006-01-02"
)

// earliestBirth is the first accepted date of birth.
var earliestBirth = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Sender issues requests to the student API. *gateway.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, method, path string, body any) (*gateway.Response, error)
}

// StudentService defines the student workflows. Validation failures come
// back as *validation.Errors with no request sent; upstream failures as
// *apperror.AppError whose message is safe to show.
type StudentService interface {
	List(ctx context.Context) ([]Student, error)
	Get(ctx context.Context, id string) (*Student, error)
	Add(ctx context.Context, form validation.Student) error
	Edit(ctx context.Context, id string, form validation.Student) error
	Delete(ctx context.Context, id string) error
}

// studentService implements StudentService on top of a Sender.
type studentService struct {
	api Sender
	now func() time.Time
}

// NewStudentService creates the student workflows. api must carry the
// visitor's token.
func NewStudentService(api Sender) StudentService {
	return &studentService{api: api, now: time.Now}
}

// List returns every student.
func (s *studentService) List(ctx context.Context) ([]Student, error) {
	resp, err := s.api.Send(ctx, http.MethodGet, pathStudents, nil)
	if err != nil {
		slog.Warn("listing students failed", slog.Any("error", err))
		return nil, upstreamError(err, "Could not load students")
	}

	list, err := decodeStudents(resp.Body)
	if err != nil {
		slog.Error("malformed student list", slog.Any("error", err))
		return nil, apperror.NewUpstream("Could not load students", err)
	}
	return list, nil
}

// Get returns one student. No connection yields "Network error", a 500
// "Internal server error" and a 404 a not-found error.
func (s *studentService) Get(ctx context.Context, id string) (*Student, error) {
	resp, err := s.api.Send(ctx, http.MethodGet, studentPath(id), nil)
	if err != nil {
		slog.Warn("loading student failed", slog.String("student_id", id), slog.Any("error", err))
		return nil, upstreamError(err, "Could not load the student")
	}

	st, err := decodeStudent(resp.Body)
	if err != nil {
		slog.Error("malformed student", slog.String("student_id", id), slog.Any("error", err))
		return nil, apperror.NewUpstream("Could not load the student", err)
	}
	return &st, nil
}

// Add creates a student. A 409 is reported as an email field error.
func (s *studentService) Add(ctx context.Context, form validation.Student) error {
	if errs := s.validate(&form); errs != nil {
		return errs
	}

	_, err := s.api.Send(ctx, http.MethodPost, pathAddStudent, payloadFor(form))
	if err == nil {
		return nil
	}
	if gateway.StatusOf(err) == http.StatusConflict {
		return validation.Single("email", msgDuplicateEmail)
	}
	slog.Error("adding student failed", slog.Any("error", err))
	return upstreamError(err, "Could not add the student. Please try again.")
}

// Edit replaces the student's fields.
func (s *studentService) Edit(ctx context.Context, id string, form validation.Student) error {
	if errs := s.validate(&form); errs != nil {
		return errs
	}

	_, err := s.api.Send(ctx, http.MethodPut, studentPath(id), payloadFor(form))
	if err == nil {
		return nil
	}
	slog.Warn("updating student failed", slog.String("student_id", id), slog.Any("error", err))
	return upstreamError(err, "Could not update the student. Please try again.")
}

// Delete removes the student. A student that is already gone counts as
// deleted.
func (s *studentService) Delete(ctx context.Context, id string) error {
	_, err := s.api.Send(ctx, http.MethodDelete, studentPath(id), nil)
	if err == nil {
		return nil
	}
	if gateway.StatusOf(err) == http.StatusNotFound {
		slog.Warn("student already deleted", slog.String("student_id", id))
		return nil
	}
	slog.Warn("deleting student failed", slog.String("student_id", id), slog.Any("error", err))
	return upstreamError(err, "Could not delete the student. Please try again.")
}

// validate trims the form (gender is left as-is), applies the schema and
// then the date of birth range.
func (s *studentService) validate(form *validation.Student) *validation.Errors {
	form.Trim()

	errs := validation.Validate(form)
	if errs.Has("dateOfBirth") {
		return errs
	}
	if msg := checkDateOfBirth(form.DateOfBirth, s.now()); msg != "" {
		if errs == nil {
			errs = &validation.Errors{}
		}
		errs.Add("dateOfBirth", msg)
	}
	return errs
}

// checkDateOfBirth returns a message when dob is not an ISO date within
// [1900-01-01, today], or "".
func checkDateOfBirth(dob string, now time.Time) string {
	d, err := time.Parse(dateLayout, dob)
	if err != nil {
		return msgDOBInvalid
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(earliestBirth) || d.After(today) {
		return msgDOBRange
	}
	return ""
}

// upstreamError turns a gateway failure into a visitor-safe error.
func upstreamError(err error, msg string) error {
	if errors.Is(err, gateway.ErrNoConnection) {
		return apperror.NewNetwork(err)
	}
	switch gateway.StatusOf(err) {
	case http.StatusUnauthorized:
		return apperror.NewUnauthorized(msgSessionExpired)
	case http.StatusNotFound:
		return apperror.NewNotFound("Student not found")
	case http.StatusInternalServerError:
		return apperror.NewInternal(err)
	}
	return apperror.NewUpstream(msg, err)
}

func studentPath(id string) string {
	return pathStudents + "/" + url.PathEscape(id)
}

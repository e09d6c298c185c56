package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/keyxmakerx/studentdesk/internal/config"
	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/plugins/auth"
	"github.com/keyxmakerx/studentdesk/internal/plugins/students"
	"github.com/keyxmakerx/studentdesk/internal/session"
	"github.com/keyxmakerx/studentdesk/internal/storage"
)

// fakeAPI is a minimal student API holding one student.
type fakeAPI struct {
	lastBody map[string]any
	deleted  []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Body != nil {
		f.lastBody = nil
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
	}

	if r.URL.Path != "/api/v1/user/login" && r.Header.Get("Authorization") != "Bearer abc123" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/api/v1/user/login":
		if f.lastBody["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Authorization", "Bearer abc123")
		_, _ = io.WriteString(w, `{"registered_user_uid":"u1","first_name":"Mary","last_name":"Smith","email":"test@example.com"}`)
	case r.URL.Path == "/api/v1/students":
		_, _ = io.WriteString(w, `[{"id":42,"first_name":"John","last_name":"Doe","email":"john@example.com","gender":"Male","date_of_birth":"2000-01-31"}]`)
	case r.URL.Path == "/api/v1/students/42" && r.Method == http.MethodGet:
		_, _ = io.WriteString(w, `{"id":42,"first_name":"John","last_name":"Doe","email":"john@example.com","gender":"Male","date_of_birth":"2000-01-31"}`)
	case r.URL.Path == "/api/v1/students/42" && r.Method == http.MethodPut:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		f.deleted = append(f.deleted, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setup(t *testing.T) (*commandLine, *fakeAPI, *bytes.Buffer) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	db, err := storage.OpenBolt(filepath.Join(t.TempDir(), "studentctl.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := session.NewStore(db, session.NewSealer("test-secret"))
	client, err := gateway.New(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	client = client.WithTokens(store)

	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte("secret1"), nil }
	t.Cleanup(func() { readPasswordFunc = orig })

	out := &bytes.Buffer{}
	return &commandLine{
		out:      out,
		store:    store,
		auth:     auth.NewAuthService(client),
		students: students.NewStudentService(client),
	}, api, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func runCases(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(context.Background(), append([]string{"studentctl"}, tt.args...))

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Fatalf("expected error %q, got %v", tt.wantErrStr, err)
				}
			case err != nil:
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.wantOut, out.String())
			}
		})
	}
}

func Test_commandLine_guard(t *testing.T) {
	cli, _, out := setup(t)

	runCases(t, cli, out, []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "list before login", args: []string{"list"}, wantErr: errNotLoggedIn},
		{name: "whoami before login", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "invalid email", args: []string{"login", "-email", "nope"}, wantErrStr: "invalid input", wantOut: "email:"},
		{name: "login", args: []string{"login", "-email", "test@example.com"}, wantOut: "Logged in as Mary Smith."},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "whoami", args: []string{"whoami"}, wantOut: "Mary Smith <test@example.com> (u1)"},
		{name: "logout", args: []string{"logout"}, wantOut: "Logged out."},
		{name: "list after logout", args: []string{"list"}, wantErr: errNotLoggedIn},
	})
}

func Test_commandLine_wrongPassword(t *testing.T) {
	cli, _, out := setup(t)
	readPasswordFunc = func(int) ([]byte, error) { return []byte("wrong-pass"), nil }

	runCases(t, cli, out, []cliTest{
		{name: "login", args: []string{"login", "-email", "test@example.com"}, wantErrStr: "Invalid email or password"},
	})
}

func Test_commandLine_students(t *testing.T) {
	cli, api, out := setup(t)

	runCases(t, cli, out, []cliTest{
		{name: "login", args: []string{"login", "-email", "test@example.com"}},
		{name: "list", args: []string{"list"}, wantOut: "John Doe"},
		{name: "get: no id", args: []string{"get"}, wantErr: errHelp},
		{name: "get", args: []string{"get", "-id", "42"}, wantOut: "Date of birth: 2000-01-31"},
		{name: "get: missing", args: []string{"get", "-id", "7"}, wantErrStr: "Student not found"},
		{name: "add: invalid dob", args: []string{"add", "-first", "A", "-last", "Bc", "-email", "a@b.co", "-dob", "1850-01-01"}, wantErrStr: "invalid input", wantOut: "Date of birth must be between 1900-01-01 and today"},
		{name: "edit", args: []string{"edit", "-id", "42", "-last", "Roe"}, wantOut: "Student updated."},
		{name: "delete", args: []string{"delete", "-id", "42"}, wantOut: "Student deleted."},
	})

	if len(api.deleted) != 1 || api.deleted[0] != "/api/v1/students/42" {
		t.Errorf("unexpected deletes %v", api.deleted)
	}
}

func Test_commandLine_editKeepsUnsetFields(t *testing.T) {
	cli, api, out := setup(t)

	runCases(t, cli, out, []cliTest{
		{name: "login", args: []string{"login", "-email", "test@example.com"}},
		{name: "edit", args: []string{"edit", "-id", "42", "-gender", "Other"}},
	})

	if api.lastBody["first_name"] != "John" || api.lastBody["last_name"] != "Doe" || api.lastBody["gender"] != "Other" {
		t.Errorf("unexpected update body %v", api.lastBody)
	}
}

func Test_commandLine_deleteAccount(t *testing.T) {
	cli, api, out := setup(t)

	runCases(t, cli, out, []cliTest{
		{name: "login", args: []string{"login", "-email", "test@example.com"}},
		{name: "delete account", args: []string{"delete-account"}, wantOut: "Account deleted."},
		{name: "logged out", args: []string{"whoami"}, wantErr: errNotLoggedIn},
	})

	if len(api.deleted) != 1 || api.deleted[0] != "/api/v1/user/u1" {
		t.Errorf("unexpected deletes %v", api.deleted)
	}
}

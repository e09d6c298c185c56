package templates

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/keyxmakerx/studentdesk/internal/templates/layouts"
	"github.com/keyxmakerx/studentdesk/internal/validation"
)

func renderString(t *testing.T, ctx context.Context, c interface {
	Render(context.Context, io.Writer) error
}) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return buf.String()
}

func TestPages_AllParsed(t *testing.T) {
	for _, name := range []string{
		"auth/login", "auth/signup", "auth/delete_account",
		"students/list", "students/detail", "error",
	} {
		if _, ok := pages[name]; !ok {
			t.Errorf("page %q not parsed", name)
		}
	}
}

func TestComponent_TextFieldShowsErrorAndEscapes(t *testing.T) {
	out := renderString(t, context.Background(), Component("textfield", Props{
		"Name":  "firstName",
		"Label": "First name",
		"Value": `<script>alert(1)</script>`,
		"Error": "First name is not allowed to be empty",
	}))

	if !strings.Contains(out, "First name is not allowed to be empty") {
		t.Error("expected the field error")
	}
	if !strings.Contains(out, `aria-invalid="true"`) {
		t.Error("expected the field to be marked invalid")
	}
	if strings.Contains(out, "<script>") {
		t.Error("value must be escaped")
	}
}

func TestComponent_SelectMarksValue(t *testing.T) {
	out := renderString(t, context.Background(), Component("selectfield", Props{
		"Name":    "gender",
		"Label":   "Gender",
		"Value":   "Female",
		"Options": []string{"Male", "Female", "Other"},
	}))

	if !strings.Contains(out, `<option value="Female" selected>`) {
		t.Errorf("expected Female to be selected:\n%s", out)
	}
}

func TestComponent_Unknown(t *testing.T) {
	var buf bytes.Buffer
	if err := Component("carousel", nil).Render(context.Background(), &buf); err == nil {
		t.Fatal("expected an error for an unknown component")
	}
}

func TestPage_LayoutShowsSignedInUser(t *testing.T) {
	ctx := layouts.SetIsAuthenticated(context.Background(), true)
	ctx = layouts.SetUserName(ctx, "Mary Smith")
	ctx = layouts.SetCSRFToken(ctx, "tok")

	out := renderString(t, ctx, Page("error", ErrorView{Code: 404, Message: "Student not found"}))

	for _, want := range []string{"Mary Smith", "Log out", "Student not found", `value="tok"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in page", want)
		}
	}
}

func TestFragment_OmitsLayout(t *testing.T) {
	view := struct {
		Form   validation.LogIn
		Errors *validation.Errors
		Banner string
		From   string
	}{
		Form:   validation.LogIn{Email: "test@example.com"},
		Errors: validation.Single("password", "Password is not allowed to be empty"),
	}

	out := renderString(t, context.Background(), Fragment("auth/login", view))

	if strings.Contains(out, "<html") {
		t.Error("fragment must not include the layout")
	}
	if !strings.Contains(out, "Password is not allowed to be empty") || !strings.Contains(out, "test@example.com") {
		t.Errorf("unexpected fragment:\n%s", out)
	}
}

func TestStatic_ServesStylesheet(t *testing.T) {
	if _, err := Static().Open("app.css"); err != nil {
		t.Fatalf("expected app.css: %v", err)
	}
}

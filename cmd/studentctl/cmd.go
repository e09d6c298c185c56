package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/keyxmakerx/studentdesk/internal/apperror"
	"github.com/keyxmakerx/studentdesk/internal/plugins/auth"
	"github.com/keyxmakerx/studentdesk/internal/plugins/students"
	"github.com/keyxmakerx/studentdesk/internal/session"
	"github.com/keyxmakerx/studentdesk/internal/validation"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in, run: studentctl login -email EMAIL")
)

type commandLine struct {
	out      io.Writer
	store    *session.Store
	auth     auth.AuthService
	students students.StudentService
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  signup -first NAME -last NAME -email EMAIL  - create an account (password prompted)")
	fmt.Fprintln(cli.out, "  login -email EMAIL                          - log in (password prompted)")
	fmt.Fprintln(cli.out, "  logout                                      - forget the stored session")
	fmt.Fprintln(cli.out, "  whoami                                      - show the logged-in user")
	fmt.Fprintln(cli.out, "  delete-account                              - delete the logged-in account")
	fmt.Fprintln(cli.out, "  list                                        - list students")
	fmt.Fprintln(cli.out, "  get -id ID                                  - show one student")
	fmt.Fprintln(cli.out, "  add -first NAME -last NAME -email EMAIL -dob YYYY-MM-DD [-gender G]")
	fmt.Fprintln(cli.out, "  edit -id ID [-first] [-last] [-email] [-gender] [-dob]")
	fmt.Fprintln(cli.out, "  delete -id ID                               - delete one student")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	name, rest := args[1], args[2:]
	switch name {
	case "signup":
		return cli.signUp(ctx, rest)
	case "login":
		return cli.logIn(ctx, rest)
	case "logout":
		if err := cli.store.LogOut(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Logged out.")
		return nil
	}

	// Everything below needs a session, the same as the guarded pages.
	sess := cli.store.Current(ctx)
	if sess == nil {
		return errNotLoggedIn
	}

	switch name {
	case "whoami":
		fmt.Fprintf(cli.out, "%s <%s> (%s)\n", sess.FullName(), sess.Email, sess.UserID)
		return nil
	case "delete-account":
		return cli.deleteAccount(ctx, sess)
	case "list":
		return cli.list(ctx)
	case "get":
		return cli.get(ctx, rest)
	case "add":
		return cli.add(ctx, rest)
	case "edit":
		return cli.edit(ctx, rest)
	case "delete":
		return cli.delete(ctx, rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// promptPassword reads a password without echoing it.
func (cli *commandLine) promptPassword(label string) (string, error) {
	fmt.Fprintf(cli.out, "%s: ", label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) signUp(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("signup")
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "Email")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}

	pwd, err := cli.promptPassword("Password")
	if err != nil {
		return err
	}
	repeat, err := cli.promptPassword("Repeat password")
	if err != nil {
		return err
	}

	sess, err := cli.auth.SignUp(ctx, validation.SignUp{
		FirstName: *first, LastName: *last, Email: *email, Password: pwd, RepeatPassword: repeat,
	})
	if err != nil {
		return cli.explain(err)
	}
	return cli.commit(ctx, sess)
}

func (cli *commandLine) logIn(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("login")
	email := fs.String("email", "", "Email")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}

	pwd, err := cli.promptPassword("Password")
	if err != nil {
		return err
	}

	sess, err := cli.auth.LogIn(ctx, validation.LogIn{Email: *email, Password: pwd})
	if err != nil {
		return cli.explain(err)
	}
	return cli.commit(ctx, sess)
}

func (cli *commandLine) commit(ctx context.Context, sess *session.Session) error {
	if err := cli.store.LogIn(ctx, *sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	fmt.Fprintf(cli.out, "Logged in as %s.\n", sess.FullName())
	return nil
}

func (cli *commandLine) deleteAccount(ctx context.Context, sess *session.Session) error {
	if err := cli.auth.DeleteAccount(ctx, sess.UserID); err != nil {
		return cli.explain(err)
	}
	if err := cli.store.LogOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Account deleted.")
	return nil
}

func (cli *commandLine) list(ctx context.Context) error {
	list, err := cli.students.List(ctx)
	if err != nil {
		return cli.explain(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(cli.out, "No students yet.")
		return nil
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tGENDER\tDATE OF BIRTH")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.FullName(), s.Email, s.Gender, s.DateOfBirth)
	}
	return tw.Flush()
}

// idFlag parses a command that takes only -id.
func (cli *commandLine) idFlag(name string, args []string) (string, error) {
	fs := cli.newFlagSet(name)
	id := fs.String("id", "", "Student ID")
	if err := fs.Parse(args); err != nil || *id == "" {
		if err == nil {
			fs.Usage()
		}
		return "", errHelp
	}
	return *id, nil
}

func (cli *commandLine) get(ctx context.Context, args []string) error {
	id, err := cli.idFlag("get", args)
	if err != nil {
		return err
	}
	s, err := cli.students.Get(ctx, id)
	if err != nil {
		return cli.explain(err)
	}
	fmt.Fprintf(cli.out, "ID:            %s\n", s.ID)
	fmt.Fprintf(cli.out, "Name:          %s\n", s.FullName())
	fmt.Fprintf(cli.out, "Email:         %s\n", s.Email)
	fmt.Fprintf(cli.out, "Gender:        %s\n", s.Gender)
	fmt.Fprintf(cli.out, "Date of birth: %s\n", s.DateOfBirth)
	return nil
}

// studentFlags binds the student form fields to fs.
func studentFlags(fs *flag.FlagSet, form *validation.Student) {
	fs.StringVar(&form.FirstName, "first", form.FirstName, "First name")
	fs.StringVar(&form.LastName, "last", form.LastName, "Last name")
	fs.StringVar(&form.Email, "email", form.Email, "Email")
	fs.StringVar(&form.Gender, "gender", form.Gender, "Gender: "+strings.Join(students.Genders, ", "))
	fs.StringVar(&form.DateOfBirth, "dob", form.DateOfBirth, "Date of birth (YYYY-MM-DD)")
}

func (cli *commandLine) add(ctx context.Context, args []string) error {
	var form validation.Student
	fs := cli.newFlagSet("add")
	studentFlags(fs, &form)
	if err := fs.Parse(args); err != nil {
		return errHelp
	}

	if err := cli.students.Add(ctx, form); err != nil {
		return cli.explain(err)
	}
	fmt.Fprintln(cli.out, "Student added.")
	return nil
}

// edit starts from the stored record so only the given flags change.
func (cli *commandLine) edit(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("edit")
	id := fs.String("id", "", "Student ID")
	var patch validation.Student
	studentFlags(fs, &patch)
	if err := fs.Parse(args); err != nil || *id == "" {
		if err == nil {
			fs.Usage()
		}
		return errHelp
	}

	current, err := cli.students.Get(ctx, *id)
	if err != nil {
		return cli.explain(err)
	}

	form := validation.Student{
		FirstName:   current.FirstName,
		LastName:    current.LastName,
		Email:       current.Email,
		Gender:      current.Gender,
		DateOfBirth: current.DateOfBirth,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "first":
			form.FirstName = patch.FirstName
		case "last":
			form.LastName = patch.LastName
		case "email":
			form.Email = patch.Email
		case "gender":
			form.Gender = patch.Gender
		case "dob":
			form.DateOfBirth = patch.DateOfBirth
		}
	})

	if err := cli.students.Edit(ctx, *id, form); err != nil {
		return cli.explain(err)
	}
	fmt.Fprintln(cli.out, "Student updated.")
	return nil
}

func (cli *commandLine) delete(ctx context.Context, args []string) error {
	id, err := cli.idFlag("delete", args)
	if err != nil {
		return err
	}
	if err := cli.students.Delete(ctx, id); err != nil {
		return cli.explain(err)
	}
	fmt.Fprintln(cli.out, "Student deleted.")
	return nil
}

// explain turns a workflow error into the message a page would show.
// Field errors are printed one per line.
func (cli *commandLine) explain(err error) error {
	var fieldErrs *validation.Errors
	if errors.As(err, &fieldErrs) {
		for _, f := range fieldErrs.Fields {
			fmt.Fprintf(cli.out, "  %s: %s\n", f.Field, f.Message)
		}
		return errors.New("invalid input")
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return errors.New(appErr.Message)
	}
	return errors.New(auth.Message(err))
}

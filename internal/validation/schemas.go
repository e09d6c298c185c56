package validation

import "strings"

// SignUp is the sign-up form.
type SignUp struct {
	FirstName      string `form:"firstName" label:"First name" validate:"required,max=100"`
	LastName       string `form:"lastName" label:"Last name" validate:"required,min=2,max=100"`
	Email          string `form:"email" label:"Email" validate:"required,min=3,max=255,email"`
	Password       string `form:"password" label:"Password" validate:"required,min=6,max=1024"`
	RepeatPassword string `form:"repeatPassword" label:"Repeat password" validate:"eqfield=Password"`
}

// Trim strips surrounding whitespace from every field.
func (s *SignUp) Trim() {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.Password = strings.TrimSpace(s.Password)
	s.RepeatPassword = strings.TrimSpace(s.RepeatPassword)
}

// LogIn is the log-in form. Same email and password rules as SignUp.
type LogIn struct {
	Email    string `form:"email" label:"Email" validate:"required,min=3,max=255,email"`
	Password string `form:"password" label:"Password" validate:"required,min=6,max=1024"`
}

// Trim strips surrounding whitespace from every field.
func (l *LogIn) Trim() {
	l.Email = strings.TrimSpace(l.Email)
	l.Password = strings.TrimSpace(l.Password)
}

// Student is the add/edit student form. Gender is optional and never
// validated; the date of birth range is checked by the caller.
type Student struct {
	FirstName   string `form:"firstName" label:"First name" validate:"required,max=100"`
	LastName    string `form:"lastName" label:"Last name" validate:"required,min=2,max=100"`
	Email       string `form:"email" label:"Email" validate:"required,min=3,max=255,email"`
	Gender      string `form:"gender" label:"Gender"`
	DateOfBirth string `form:"dateOfBirth" label:"Date of birth" validate:"required"`
}

// Trim strips surrounding whitespace from every field except Gender, which
// comes from a fixed list and is passed through as-is.
func (s *Student) Trim() {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.DateOfBirth = strings.TrimSpace(s.DateOfBirth)
}

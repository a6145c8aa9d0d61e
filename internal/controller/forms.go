package controller

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// LoginForm is submitted by the login screen.
type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=6"`
}

// SignupForm is submitted by the signup screen.
type SignupForm struct {
	Email           string `form:"email" binding:"required,email"`
	Password        string `form:"password" binding:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" binding:"required,min=6,eqfield=Password"`
}

// CreateForm is submitted by the create assignment screen.
type CreateForm struct {
	Title       string  `form:"title"`
	Description string  `form:"description"`
	DueDate     string  `form:"due_date"`
	Scope       string  `form:"scope"`
	TeamID      string  `form:"team_id"`
	UserIDs     []int64 `form:"user_ids"`
}

// ManageForm is submitted by the manage assignments screen. TeamID and
// EmployeeIDs are free text as typed by the operator.
type ManageForm struct {
	EditingID   int64  `form:"editing_id"`
	Title       string `form:"title"`
	Description string `form:"description"`
	DueDate     string `form:"due_date"`
	TeamID      string `form:"team_id"`
	EmployeeIDs string `form:"employee_ids"`
}

var fieldLabels = map[string]string{
	"Email":           "Email",
	"Password":        "Password",
	"ConfirmPassword": "Confirm Password",
}

// validate runs the binding tags on form and returns one message per
// invalid field, keyed by field name.
func validate(form any) map[string]string {
	err := binding.Validator.ValidateStruct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	}
	return label + " is invalid"
}

// parseIDList turns "3, 4,x,-1" into [3 4], dropping anything that is not
// a positive integer.
func parseIDList(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		ids = append(ids, n)
	}
	return ids
}

// parseOptionalID parses a positive id. Blank input yields nil.
func parseOptionalID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid id %q", raw)
	}
	return &n, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// Package validation holds the rule sets for user API inputs.
//
// Rules are data, not struct tags: each RuleSet maps a Go field name to a
// go-playground/validator tag string and is registered against the matching
// input struct when the Validator is built. Failures come back as
// errorutil validation errors carrying a single client-facing message.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/spec-kit/user-service/internal/api/dto"
	apperrors "github.com/spec-kit/user-service/pkg/util/errorutil"
)

// RuleSet maps struct field names to validator tags.
type RuleSet map[string]string

// Rules groups the rule set of every validated input.
type Rules struct {
	TeamFilter RuleSet
	UserID     RuleSet
	CreateUser RuleSet
	UpdateUser RuleSet
}

// DefaultRules returns the rules the API ships with.
func DefaultRules() Rules {
	return Rules{
		TeamFilter: RuleSet{
			"Team": "required,max=100",
		},
		UserID: RuleSet{
			"UserID": "required,number,max=19",
		},
		CreateUser: RuleSet{
			"FirstName": "required,notblank,max=50",
			"LastName":  "required,notblank,max=50",
			"Email":     "required,email,max=254",
			"TeamID":    "required,number",
			"Status":    "required,oneof=ACTIVE INACTIVE",
			"Initials":  "omitempty,max=5",
			"Password":  "omitempty,min=8,max=72",
		},
		UpdateUser: RuleSet{
			"TeamID":    "required,number",
			"FirstName": "omitempty,notblank,max=50",
			"LastName":  "omitempty,notblank,max=50",
			"Email":     "omitempty,email,max=254",
			"Status":    "omitempty,oneof=ACTIVE INACTIVE",
			"Initials":  "omitempty,notblank,max=5",
		},
	}
}

// Validator checks API inputs against a fixed set of rules.
type Validator struct {
	validate *validator.Validate
}

// New registers rules and returns a ready validator.
func New(rules Rules) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterStructValidationMapRules(rules.TeamFilter, dto.TeamFilterQuery{})
	v.RegisterStructValidationMapRules(rules.UserID, dto.UserIDPath{})
	v.RegisterStructValidationMapRules(rules.CreateUser, dto.CreateUserRequest{})
	v.RegisterStructValidationMapRules(rules.UpdateUser, dto.UpdateUserRequest{})
	return &Validator{validate: v}
}

// TeamFilter validates the team query filter.
func (v *Validator) TeamFilter(team string) (dto.TeamFilterQuery, error) {
	query := dto.TeamFilterQuery{Team: team}
	return query, v.check(&query)
}

// UserID validates a user id path parameter.
func (v *Validator) UserID(id string) (dto.UserIDPath, error) {
	path := dto.UserIDPath{UserID: id}
	return path, v.check(&path)
}

// CreateUser decodes and validates a create payload.
func (v *Validator) CreateUser(body string) (dto.CreateUserRequest, error) {
	var req dto.CreateUserRequest
	if err := decodeStrict(body, &req); err != nil {
		return dto.CreateUserRequest{}, err
	}
	trimFields(&req.FirstName, &req.LastName, &req.Email, &req.Initials)
	return req, v.check(&req)
}

// UpdateUser decodes and validates an update payload.
func (v *Validator) UpdateUser(body string) (dto.UpdateUserRequest, error) {
	var req dto.UpdateUserRequest
	if err := decodeStrict(body, &req); err != nil {
		return dto.UpdateUserRequest{}, err
	}
	trimFields(req.FirstName, req.LastName, req.Email, req.Initials)
	return req, v.check(&req)
}

// trimFields strips surrounding whitespace in place so rules see what is stored.
func trimFields(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

func (v *Validator) check(payload any) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describe(fe)
	}
	return apperrors.NewValidationError(describe(fieldErrs[0]), details)
}

func decodeStrict(body string, dst any) error {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError(decodeMessage(err), nil)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("request body must contain a single JSON object", nil)
	}
	return nil
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%q has an invalid type", typeErr.Field)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return "request body must be valid JSON"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return fmt.Sprintf("%s is not allowed", field)
	}
	return "request body must be valid JSON"
}

func describe(fe validator.FieldError) string {
	field := fmt.Sprintf("%q", fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return field + " must be a valid email"
	case "number":
		return field + " must be a number"
	case "notblank":
		return field + " must not be blank"
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

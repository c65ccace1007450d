package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/user-service/pkg/util/errorutil"
)

func requireValidationMessage(t *testing.T, err error, message string) {
	t.Helper()
	domainErr, ok := apperrors.AsDomainError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	require.Equal(t, apperrors.KindValidation, domainErr.Kind)
	require.Equal(t, 400, domainErr.HTTPStatus)
	require.Equal(t, message, domainErr.Message)
}

func TestTeamFilter(t *testing.T) {
	v := New(DefaultRules())

	query, err := v.TeamFilter("Platform")
	require.NoError(t, err)
	require.Equal(t, "Platform", query.Team)

	_, err = v.TeamFilter("")
	requireValidationMessage(t, err, `"team" is required`)
}

func TestUserID(t *testing.T) {
	v := New(DefaultRules())

	_, err := v.UserID("42")
	require.NoError(t, err)

	_, err = v.UserID("abc")
	requireValidationMessage(t, err, `"userId" must be a number`)

	_, err = v.UserID("12345678901234567890")
	requireValidationMessage(t, err, `"userId" must not exceed 19 characters`)
}

func TestCreateUser(t *testing.T) {
	v := New(DefaultRules())

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name: "valid with numeric team id",
			body: `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","teamId":3,"status":"ACTIVE"}`,
		},
		{
			name: "valid with string team id",
			body: `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","teamId":"3","status":"INACTIVE","initials":"AL"}`,
		},
		{
			name:    "missing team",
			body:    `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","status":"ACTIVE"}`,
			message: `"teamId" is required`,
		},
		{
			name:    "bad status",
			body:    `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","teamId":3,"status":"GONE"}`,
			message: `"status" must be one of [ACTIVE, INACTIVE]`,
		},
		{
			name:    "bad email",
			body:    `{"firstName":"Ada","lastName":"Lovelace","email":"nope","teamId":3,"status":"ACTIVE"}`,
			message: `"email" must be a valid email`,
		},
		{
			name:    "short password",
			body:    `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","teamId":3,"status":"ACTIVE","password":"short"}`,
			message: `"password" must be at least 8 characters`,
		},
		{
			name:    "unknown field",
			body:    `{"firstName":"Ada","nickname":"A"}`,
			message: `"nickname" is not allowed`,
		},
		{
			name:    "malformed json",
			body:    `{"firstName":`,
			message: "request body must be valid JSON",
		},
		{
			name:    "trailing data",
			body:    `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","teamId":3,"status":"ACTIVE"} {}`,
			message: "request body must contain a single JSON object",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, err := v.CreateUser(tt.body)
			if tt.message == "" {
				require.NoError(t, err)
				require.Equal(t, "3", req.TeamID.String())
				return
			}
			requireValidationMessage(t, err, tt.message)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	v := New(DefaultRules())

	req, err := v.UpdateUser(`{"teamId":2,"lastName":"King"}`)
	require.NoError(t, err)
	require.Equal(t, "2", req.TeamID.String())
	require.NotNil(t, req.LastName)
	require.Nil(t, req.FirstName)

	_, err = v.UpdateUser(`{"lastName":"King"}`)
	requireValidationMessage(t, err, `"teamId" is required`)

	_, err = v.UpdateUser(`{"teamId":2,"status":"DELETED"}`)
	requireValidationMessage(t, err, `"status" must be one of [ACTIVE, INACTIVE]`)
}

func TestBlankNamesRejected(t *testing.T) {
	v := New(DefaultRules())

	_, err := v.CreateUser(`{"firstName":"   ","lastName":"Lovelace","email":"ada@example.com","teamId":3,"status":"ACTIVE"}`)
	requireValidationMessage(t, err, `"firstName" is required`)

	_, err = v.UpdateUser(`{"teamId":2,"firstName":"  "}`)
	requireValidationMessage(t, err, `"firstName" must not be blank`)

	_, err = v.UpdateUser(`{"teamId":2,"initials":"\t"}`)
	requireValidationMessage(t, err, `"initials" must not be blank`)
}

func TestStringFieldsAreTrimmed(t *testing.T) {
	v := New(DefaultRules())

	created, err := v.CreateUser(`{"firstName":" Ada ","lastName":"Lovelace\t","email":" ada@example.com ","teamId":3,"status":"ACTIVE"}`)
	require.NoError(t, err)
	require.Equal(t, "Ada", created.FirstName)
	require.Equal(t, "Lovelace", created.LastName)
	require.Equal(t, "ada@example.com", created.Email)

	updated, err := v.UpdateUser(`{"teamId":2,"firstName":"  Grace "}`)
	require.NoError(t, err)
	require.Equal(t, "Grace", *updated.FirstName)
}

func TestCustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.TeamFilter = RuleSet{"Team": "required,max=3"}
	v := New(rules)

	_, err := v.TeamFilter("Platform")
	requireValidationMessage(t, err, `"team" must not exceed 3 characters`)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func staticID(id string) func() string {
	return func() string { return id }
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"admin", RoleAdmin},
		{"Admin", RoleAdmin},
		{" ADMIN ", RoleAdmin},
		{"user", RoleUser},
		{"", RoleUser},
		{"superuser", RoleUser},
		{"root", RoleUser},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRole(tt.input), "input=%q", tt.input)
	}
}

func TestNormalizeLogin_AllFieldsPresent(t *testing.T) {
	raw := RawIdentity{ID: "u1", Email: "a@b.com", Name: "A", Role: "admin"}

	u := NormalizeLogin(raw, "a@b.com", staticID("generated"))

	assert.Equal(t, User{ID: "u1", Email: "a@b.com", Name: "A", Role: RoleAdmin}, u)
	assert.True(t, u.IsAdmin())
}

func TestNormalizeLogin_AllFieldsMissing(t *testing.T) {
	u := NormalizeLogin(RawIdentity{}, "jane.doe@example.org", staticID("gen-1"))

	assert.Equal(t, "gen-1", u.ID)
	assert.Equal(t, "jane.doe@example.org", u.Email)
	assert.Equal(t, "jane.doe", u.Name)
	assert.Equal(t, RoleUser, u.Role)
	assert.False(t, u.IsAdmin())
}

func TestNormalizeLogin_EmailWithoutAtSign(t *testing.T) {
	u := NormalizeLogin(RawIdentity{}, "not-an-email", staticID("x"))
	assert.Equal(t, "not-an-email", u.Name)
}

func TestNormalizeLogin_UnknownRoleClampedToUser(t *testing.T) {
	u := NormalizeLogin(RawIdentity{Role: "owner"}, "a@b.com", staticID("x"))
	assert.Equal(t, RoleUser, u.Role)
}

func TestNormalizeSignup_MissingRoleFallsBackToRequested(t *testing.T) {
	u := NormalizeSignup(RawIdentity{ID: "u2"}, "Jo", "j@x.com", RoleAdmin, staticID("x"))

	assert.Equal(t, User{ID: "u2", Email: "j@x.com", Name: "Jo", Role: RoleAdmin}, u)
}

func TestNormalizeSignup_ServerRoleWinsOverRequested(t *testing.T) {
	u := NormalizeSignup(RawIdentity{Role: "user"}, "Jo", "j@x.com", RoleAdmin, staticID("x"))
	assert.Equal(t, RoleUser, u.Role)
}

func TestNormalizeSignup_NameFallsBackToSubmittedNameNotEmail(t *testing.T) {
	u := NormalizeSignup(RawIdentity{}, "Jo", "j@x.com", RoleUser, staticID("x"))
	assert.Equal(t, "Jo", u.Name)
}

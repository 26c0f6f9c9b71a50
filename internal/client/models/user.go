// Package models holds the client-side identity types and the normalization
// rules that turn loosely-typed identity-service responses into well-formed
// User records.
package models

import (
	"strings"
	"time"
)

// Role is the authorization level attached to a user. Only two values exist.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps an arbitrary role string onto the Role enum. Anything other
// than "admin" (case-insensitive) is RoleUser, so the result is always one of
// the two known values.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// User is the identity record cached by the session manager.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RawIdentity is the flattened, untrusted payload of a successful
// authentication response. Any field may be empty; normalization fills the
// gaps. Token is carried alongside the identity fields when the server
// issued one.
type RawIdentity struct {
	ID    string
	Email string
	Name  string
	Role  string
	Token string
}

// NormalizeLogin turns a raw login response into a User, applying fallbacks
// in order:
//
//  1. ID: server value, else newID().
//  2. Email: server value, else the email submitted with the request.
//  3. Name: server value, else the local part of the email (text before "@";
//     the whole email when it contains no "@").
//  4. Role: server value via ParseRole, else RoleUser.
//
// The function is total: every raw payload yields a valid User.
func NormalizeLogin(raw RawIdentity, submittedEmail string, newID func() string) User {
	email := raw.Email
	if email == "" {
		email = submittedEmail
	}

	name := raw.Name
	if name == "" {
		name = localPart(email)
	}

	return User{
		ID:    fallback(raw.ID, newID),
		Email: email,
		Name:  name,
		Role:  ParseRole(raw.Role),
	}
}

// NormalizeSignup is NormalizeLogin for registration responses: the name
// falls back to the name submitted with the request, and a missing role falls
// back to the role the caller requested rather than RoleUser.
func NormalizeSignup(raw RawIdentity, submittedName, submittedEmail string, requestedRole Role, newID func() string) User {
	email := raw.Email
	if email == "" {
		email = submittedEmail
	}

	name := raw.Name
	if name == "" {
		name = submittedName
	}

	role := requestedRole
	if raw.Role != "" {
		role = ParseRole(raw.Role)
	}

	return User{
		ID:    fallback(raw.ID, newID),
		Email: email,
		Name:  name,
		Role:  role,
	}
}

// LoginRecord is a single audit-log entry emitted on successful
// authentication.
type LoginRecord struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	At     time.Time `json:"timestamp"`
}

func fallback(v string, gen func() string) string {
	if v != "" {
		return v
	}
	return gen()
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}

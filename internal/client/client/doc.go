// Package client defines the identity-service API surface used by the
// session manager and its HTTP implementation.
package client

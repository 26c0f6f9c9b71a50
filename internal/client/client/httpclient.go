package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mlapshin/authkeep/internal/client/models"
)

const (
	loginPath  = "/api/auth/login"
	signupPath = "/api/auth/signup"
	healthPath = "/api/health"
)

// HTTPClient implements Client over plain HTTP/JSON.
//
// No request timeout is applied; callers control the lifetime of a request
// through ctx. A superseded attempt simply has its result ignored.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds an HTTPClient for the service rooted at baseURL
// (scheme and host, e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// identityEnvelope covers both response shapes the service is known to use:
// a nested "user" object, or id/email/name/role at the top level.
type identityEnvelope struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Token string `json:"token"`
	User  *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
}

type errorEnvelope struct {
	Message string `json:"message"`
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.RawIdentity, error) {
	return c.authenticate(ctx, loginPath, loginRequest{Email: email, Password: password})
}

func (c *HTTPClient) Signup(ctx context.Context, name, email, password string, role models.Role) (*models.RawIdentity, error) {
	req := signupRequest{Name: name, Email: email, Password: password, Role: string(role)}
	return c.authenticate(ctx, signupPath, req)
}

// authenticate posts payload to path and maps the outcome onto the error
// taxonomy: transport failure -> ErrUnavailable, non-2xx -> StatusError
// (wrapping ErrInvalidCredentials), undecodable 2xx body ->
// ErrMalformedResponse.
func (c *HTTPClient) authenticate(ctx context.Context, path string, payload any) (*models.RawIdentity, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ee errorEnvelope
		_ = json.Unmarshal(data, &ee) // a missing or non-JSON body leaves Message empty
		return nil, &StatusError{Code: resp.StatusCode, Message: ee.Message}
	}

	var env identityEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	raw := &models.RawIdentity{
		ID:    env.ID,
		Email: env.Email,
		Name:  env.Name,
		Role:  env.Role,
		Token: env.Token,
	}
	if env.User != nil {
		raw.ID = env.User.ID
		raw.Email = env.User.Email
		raw.Name = env.User.Name
		raw.Role = env.User.Role
	}
	return raw, nil
}

// Ping probes service liveness. Any transport error or non-2xx status is
// reported as ErrUnavailable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ErrUnavailable
	}
	return nil
}

// Close releases idle connections held by the underlying transport.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

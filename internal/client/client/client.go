package client

import (
	"context"

	"github.com/mlapshin/authkeep/internal/client/models"
)

// Client talks to the remote identity service. Credentials passed in are
// transient; implementations must not retain them after the call returns.
type Client interface {
	Close() error
	Login(ctx context.Context, email, password string) (*models.RawIdentity, error)
	Signup(ctx context.Context, name, email, password string, role models.Role) (*models.RawIdentity, error)
	Ping(ctx context.Context) error
}

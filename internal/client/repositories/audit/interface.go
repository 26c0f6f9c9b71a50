// Package audit keeps the append-only log of successful authentication
// events in the client's local database.
package audit

import (
	"context"

	"github.com/mlapshin/authkeep/internal/client/models"
)

// Repository appends and reads login events. List returns records in the
// order they were appended, oldest first.
type Repository interface {
	Append(ctx context.Context, rec models.LoginRecord) error
	List(ctx context.Context) ([]models.LoginRecord, error)
}

package audit

import (
	"context"
	"fmt"

	"github.com/mlapshin/authkeep/internal/client/models"
	"github.com/mlapshin/authkeep/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, rec models.LoginRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_events (user_id, email, created_at) VALUES (?, ?, ?)
	`, rec.UserID, rec.Email, rec.At)
	if err != nil {
		return fmt.Errorf("failed to append login event: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.LoginRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, email, created_at FROM login_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list login events: %w", err)
	}
	defer rows.Close()

	var result []models.LoginRecord
	for rows.Next() {
		var rec models.LoginRecord
		if err := rows.Scan(&rec.UserID, &rec.Email, &rec.At); err != nil {
			return nil, fmt.Errorf("failed to scan login event: %w", err)
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate login events: %w", err)
	}

	return result, nil
}

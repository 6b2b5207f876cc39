package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"skillshare/internal/database"
	"skillshare/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const maxPageSize = 100

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// clampPage keeps list queries bounded.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound AppError and everything else to INTERNAL.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// casUpdate writes columns to the row identified by id only while its stored
// version still equals expected, and bumps the version. A row that moved on
// (or vanished) yields models.ErrStaleRecord so the caller can re-read and retry.
func casUpdate(ctx context.Context, db *gorm.DB, model interface{}, id uint, expected int64, columns map[string]interface{}) error {
	columns["version"] = expected + 1
	columns["updated_at"] = time.Now()

	res := db.WithContext(ctx).Model(model).
		Where("id = ? AND version = ?", id, expected).
		Updates(columns)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrStaleRecord
	}
	return nil
}

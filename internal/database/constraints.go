package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"estate/server/internal/models"
)

type constraintInfo struct {
	field   string
	message string
}

// Keys are CHECK constraint names, unique index names and the
// table.column form SQLite reports for unique violations.
var constraintMessages = map[string]constraintInfo{
	"chk_expected_price_positive": {"expected_price", "The expected price must be positive."},
	"chk_selling_price_positive":  {"selling_price", "The selling price must be non-negative."},
	"chk_offer_price_positive":    {"price", "The offer price must be positive."},
	"idx_property_type_name":      {"name", "The type name must be unique."},
	"estate_property_types.name":  {"name", "The type name must be unique."},
	"idx_property_tag_name":       {"name", "The tag name must be unique."},
	"estate_property_tags.name":   {"name", "The tag name must be unique."},
}

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// constraintError returns a ValidationError when err is a CHECK or UNIQUE
// violation reported by SQLite or PostgreSQL, nil otherwise.
func constraintError(err error) *models.ValidationError {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintUnique:
			return lookupConstraint(sqliteErr.Error())
		}
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgCheckViolation:
			if info, ok := constraintMessages[pgErr.ConstraintName]; ok {
				return models.NewValidationError(info.field, info.message)
			}
			return models.NewValidationError("", pgErr.Message)
		}
	}
	return nil
}

func lookupConstraint(message string) *models.ValidationError {
	for key, info := range constraintMessages {
		if strings.Contains(message, key) {
			return models.NewValidationError(info.field, info.message)
		}
	}
	return models.NewValidationError("", message)
}

package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"catalog-backend/internal/domains/catalog/model"
)

// PostgreSQL error codes
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeNotNullViolation   = "23502"
	codeCheckViolation     = "23514"
	codeUniqueViolation    = "23505"
	codeStringTooLong      = "22001"
	codeNumericOutOfRange  = "22003"
	codeInvalidTextRepr    = "22P02"
	codeInvalidDatetime    = "22007"
	codeDatetimeOutOfRange = "22008"
)

// checkConstraints map constraint name trong schema.sql -> field + reason
var checkConstraints = map[string]struct{ field, reason string }{
	"authors_name_not_blank":         {"name", "cannot be empty"},
	"books_title_not_blank":          {"title", "cannot be empty"},
	"books_description_not_blank":    {"description", "cannot be empty"},
	"books_price_value_non_negative": {"price.value", "must be greater than or equal to 0"},
	"books_price_currency_valid":     {"price.currency", "must be one of USD, EUR, GBP, BRL, VND"},
	"books_price_complete":           {"price", "value and currency must be provided together"},
	"books_number_of_pages_range":    {"numberOfPages", "must be between 1 and 10000"},
}

var fieldsByTable = columnFields()

// ClassifyError nhận diện PgError là lỗi dữ liệu của client.
// Lỗi không nhận ra (connection, serialization, deadlock...) trả ok=false
// để ErrorAdapter gom thành RepositoryError.
func ClassifyError(err error) (error, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, false
	}

	switch pgErr.Code {
	case codeNotNullViolation:
		return model.NewValidationError(fieldOf(pgErr), "is required"), true

	case codeCheckViolation:
		if c, ok := checkConstraints[pgErr.ConstraintName]; ok {
			return model.NewValidationError(c.field, c.reason), true
		}
		return model.NewValidationError(fieldOf(pgErr), "violates constraint "+pgErr.ConstraintName), true

	case codeUniqueViolation:
		return model.NewValidationError("id", "already exists"), true

	case codeStringTooLong:
		return model.NewValidationError(fieldOf(pgErr), "value is too long"), true

	case codeNumericOutOfRange:
		return model.NewValidationError(fieldOf(pgErr), "value is out of range"), true

	case codeInvalidTextRepr, codeInvalidDatetime, codeDatetimeOutOfRange:
		return model.NewValidationError(fieldOf(pgErr), "has an invalid format"), true
	}

	return nil, false
}

// fieldOf đổi column name về logical field, fallback "document" khi Postgres không báo column
func fieldOf(pgErr *pgconn.PgError) string {
	if cols, ok := fieldsByTable[pgErr.TableName]; ok {
		if field, ok := cols[pgErr.ColumnName]; ok {
			return field
		}
	}
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	return "document"
}

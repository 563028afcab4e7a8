package repository

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"catalog-backend/internal/domains/catalog/model"
)

const unexpectedErrorMessage = "unexpected repository error"

// Classifier nhận diện lỗi riêng của một storage engine (vd: pgconn.PgError).
// ok=false nghĩa là không nhận ra, adapter sẽ thử classifier tiếp theo.
type Classifier func(err error) (adapted error, ok bool)

// ErrorAdapter map mọi lỗi đi ra khỏi repository về taxonomy đóng:
// DataValidationError, ResourceNotFoundError, RepositoryError.
type ErrorAdapter struct {
	logger      zerolog.Logger
	classifiers []Classifier
}

func NewErrorAdapter(logger zerolog.Logger, classifiers ...Classifier) *ErrorAdapter {
	return &ErrorAdapter{
		logger:      logger,
		classifiers: classifiers,
	}
}

// Adapt is called exactly once per repository method, on the way out.
func (a *ErrorAdapter) Adapt(err error) error {
	if err == nil {
		return nil
	}

	// Đã thuộc taxonomy: trả về nguyên bản, bỏ lớp wrap context
	var validationErr *model.DataValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	var notFoundErr *model.ResourceNotFoundError
	if errors.As(err, &notFoundErr) {
		return notFoundErr
	}
	var repoErr *model.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return &model.DataValidationError{Fields: flattenFieldErrors("", fieldErrs)}
	}

	for _, classify := range a.classifiers {
		if adapted, ok := classify(err); ok {
			return adapted
		}
	}

	a.logger.Error().Err(err).Msg(unexpectedErrorMessage)
	return model.NewRepositoryError(unexpectedErrorMessage, err)
}

// flattenFieldErrors: {"price": {"currency": ...}} -> {"price.currency": ...}
func flattenFieldErrors(prefix string, errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		if err == nil {
			continue
		}
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}

		var nested validation.Errors
		if errors.As(err, &nested) {
			for k, v := range flattenFieldErrors(key, nested) {
				out[k] = v
			}
			continue
		}
		out[key] = err.Error()
	}
	return out
}

package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind là tag phân loại lỗi đi ra khỏi repository boundary.
// Caller switch trên Kind thay vì inspect concrete type.
type Kind int

const (
	KindRepository Kind = iota
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "repository"
	}
}

// Resource names used in ResourceNotFoundError
const (
	ResourceAuthor = "Author"
	ResourceBook   = "Book"
)

// DataValidationError - input sai, client có thể sửa được.
// Fields map field-name -> human readable reason.
type DataValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, reason string) *DataValidationError {
	return &DataValidationError{Fields: map[string]string{field: reason}}
}

func (e *DataValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// ResourceNotFoundError - id không resolve được entity nào
type ResourceNotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Resource: resource, ID: id}
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s %s", e.Resource, e.ID)
}

// RepositoryError là lỗi persistence không mong muốn.
// Message an toàn để trả cho client, cause chỉ dùng cho logging.
type RepositoryError struct {
	Message string
	cause   error
}

func NewRepositoryError(message string, cause error) *RepositoryError {
	return &RepositoryError{Message: message, cause: cause}
}

func (e *RepositoryError) Error() string {
	return e.Message
}

func (e *RepositoryError) Unwrap() error {
	return e.cause
}

// KindOf classifies err. Anything outside the taxonomy counts as KindRepository.
func KindOf(err error) Kind {
	var validationErr *DataValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	var notFoundErr *ResourceNotFoundError
	if errors.As(err, &notFoundErr) {
		return KindNotFound
	}
	return KindRepository
}

// IsTaxonomy reports whether err is already one of the three boundary errors.
func IsTaxonomy(err error) bool {
	var validationErr *DataValidationError
	var notFoundErr *ResourceNotFoundError
	var repoErr *RepositoryError
	return errors.As(err, &validationErr) || errors.As(err, &notFoundErr) || errors.As(err, &repoErr)
}

package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common validation errors for models.
var (
	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name is required")

	// ErrURLRequired indicates a required URL field is empty.
	ErrURLRequired = errors.New("url is required")

	// ErrInvalidURL indicates a malformed URL.
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrStreamURLRequired indicates a required stream URL field is empty.
	ErrStreamURLRequired = errors.New("stream_url is required")

	// ErrChannelIDRequired indicates a required channel ID field is empty.
	ErrChannelIDRequired = errors.New("channel_id is required")

	// ErrProgramIDRequired indicates a required program ID field is empty.
	ErrProgramIDRequired = errors.New("program_id is required")

	// ErrStartTimeRequired indicates a required start time field is empty.
	ErrStartTimeRequired = errors.New("start time is required")

	// ErrTitleRequired indicates a required title field is empty.
	ErrTitleRequired = errors.New("title is required")

	// ErrTenantRequired indicates a required tenant field is empty.
	ErrTenantRequired = errors.New("tenant_id is required")

	// ErrInvalidTimeRange indicates end time is before start time.
	ErrInvalidTimeRange = errors.New("end time must not be before start time")
)

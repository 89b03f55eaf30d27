package scheduling

import (
	"errors"
	"fmt"
)

// ClosedDayMessage accompanies an empty slot list for a disabled weekday.
const ClosedDayMessage = "Clinic closed on this day"

// ErrSlotUnavailable is returned when a specific requested slot cannot be booked.
var ErrSlotUnavailable = errors.New("slot unavailable")

// ValidationError reports a missing or malformed request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a clinic, service or policy that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConfigError reports stored clinic data that is internally inconsistent.
type ConfigError struct {
	ClinicID string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.ClinicID == "" {
		return "clinic misconfigured: " + e.Reason
	}
	return fmt.Sprintf("clinic %s misconfigured: %s", e.ClinicID, e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConfig reports whether err carries a ConfigError.
func IsConfig(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

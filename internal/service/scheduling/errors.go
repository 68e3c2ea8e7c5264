package scheduling

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Alijeyrad/simorq_availability/internal/schedule"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrVersionConflict  = errors.New("schedule was modified by another request")
)

// ValidationError carries every issue found in a submitted schedule.
type ValidationError struct {
	Issues []schedule.ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid schedule: " + e.Issues[0].Error()
	}
	msgs := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		msgs = append(msgs, i.Error())
	}
	return fmt.Sprintf("invalid schedule: %d issues: %s", len(e.Issues), strings.Join(msgs, "; "))
}

package booking

import (
	"fmt"
	"strings"

	"github.com/innhub/service-reservation/internal/platform/domain"
)

// PersonDetail describes one guest staying under the booking.
type PersonDetail struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	IDNumber string `json:"idNumber,omitempty"`
}

// ValidatePersonDetails requires at least one guest and a name for each.
func ValidatePersonDetails(details []PersonDetail) error {
	if len(details) == 0 {
		return domain.NewFieldValidationError("personDetails", "at least one guest is required")
	}
	for i, d := range details {
		if strings.TrimSpace(d.Name) == "" {
			return domain.NewFieldValidationError(fmt.Sprintf("personDetails[%d].name", i), "is required")
		}
		if d.Email != "" && !strings.Contains(d.Email, "@") {
			return domain.NewFieldValidationError(fmt.Sprintf("personDetails[%d].email", i), "is not a valid email")
		}
	}
	return nil
}

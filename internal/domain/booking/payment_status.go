package booking

import (
	"fmt"

	"github.com/innhub/service-reservation/internal/platform/domain"
)

// PaymentStatus tracks settlement independently of the stay lifecycle.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var validPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentUnpaid:   {PaymentPaid},
	PaymentPaid:     {PaymentRefunded},
	PaymentRefunded: {},
}

func (p PaymentStatus) IsValid() bool {
	_, ok := validPaymentTransitions[p]
	return ok
}

func (p PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, t := range validPaymentTransitions[p] {
		if t == target {
			return true
		}
	}
	return false
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	p := PaymentStatus(s)
	if !p.IsValid() {
		return "", domain.NewFieldValidationError("paymentStatus", fmt.Sprintf("invalid payment status: %q", s))
	}
	return p, nil
}

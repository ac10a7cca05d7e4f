package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// OrderCodePrefix is the human-visible prefix on every order code.
const OrderCodePrefix = "VM"

// NewOrderCode generates a human-readable order code such as "VM-9F3A2C".
// Codes are immutable once assigned; uniqueness is enforced by the store, and
// callers retry on the (vanishingly rare) collision.
func NewOrderCode() string {
	id := uuid.New()
	return fmt.Sprintf("%s-%s", OrderCodePrefix, strings.ToUpper(id.String()[:6]))
}

// IsOrderCode performs a cheap shape check before hitting the store.
func IsOrderCode(code string) bool {
	return strings.HasPrefix(code, OrderCodePrefix+"-") && len(code) == len(OrderCodePrefix)+7
}

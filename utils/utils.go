package utils

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
)

// Phone numbers: digits with optional +, at least 7 characters.
var phonePattern = regexp.MustCompile(`^[+\d]{7,}$`)

// ValidPhone reports whether s looks like a usable contact number.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// FormatAmount renders a rupee amount for customer-facing messages.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("₹%.2f", amount)
}

// ToPaise converts a rupee amount into the gateway's minor currency unit.
func ToPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// GeneratePickupCode returns a short random code the customer presents to
// claim a paid order.
func GeneratePickupCode() string {
	return strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}

// DayKey returns the calendar-day bucket used by the daily token counter.
func DayKey(t time.Time) string {
	return now.With(t).BeginningOfDay().Format("2006-01-02")
}

package config

import (
	"os"
	"strconv"
	"time"
)

const (
	BOOKINGS_COLLECTION = "bookings"

	CODE_LENGTH       = 6
	MAX_CODE_ATTEMPTS = 3

	DATE_PARSE_FORMAT = "2006-01-02"
	TIME_SLOT_FORMAT  = "15:04"
)

func GetCompletionCodeTTL() time.Duration {
	mins, err := strconv.Atoi(os.Getenv("BOOKING_CODE_TTL_MINUTES"))
	if err != nil || mins <= 0 {
		mins = 30
	}
	return time.Duration(mins) * time.Minute
}

// RequireStartCode controls whether bookings created before start codes
// existed may still be started without one. Defaults to the relaxed policy.
func RequireStartCode() bool {
	v, err := strconv.ParseBool(os.Getenv("BOOKING_REQUIRE_START_CODE"))
	if err != nil {
		return false
	}
	return v
}

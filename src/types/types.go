package types

import (
	"github.com/golang-jwt/jwt/v4"
)

type BookingStatus string

const (
	BOOKING_PENDING     BookingStatus = "pending"
	BOOKING_CONFIRMED   BookingStatus = "confirmed"
	BOOKING_IN_PROGRESS BookingStatus = "in_progress"
	BOOKING_COMPLETED   BookingStatus = "completed"
	BOOKING_CANCELLED   BookingStatus = "cancelled"
	// BOOKING_REJECTED exists only on documents written by older releases.
	// New declines are recorded as cancelled.
	BOOKING_REJECTED BookingStatus = "rejected"
)

type PaymentStatus string

const (
	PAYMENT_UNPAID PaymentStatus = "unpaid"
	PAYMENT_PAID   PaymentStatus = "paid"
)

type FinalPaymentStatus string

const (
	FINAL_PAYMENT_PENDING   FinalPaymentStatus = "pending"
	FINAL_PAYMENT_COMPLETED FinalPaymentStatus = "completed"
	FINAL_PAYMENT_FAILED    FinalPaymentStatus = "failed"
)

type PaymentMethod string

const (
	PAYMENT_METHOD_CASH    PaymentMethod = "cash"
	PAYMENT_METHOD_GATEWAY PaymentMethod = "gateway"
)

type Metadata map[string]any

type CreateBookingRequestBody struct {
	ProviderID      string  `json:"provider_id" binding:"required"`
	Date            string  `json:"date" binding:"required,bookdate"`
	StartTime       string  `json:"start_time" binding:"required,timeslot"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0"`
	TotalPrice      float64 `json:"total_price" binding:"omitempty,gte=0"`
	Notes           string  `json:"notes,omitempty"`
	CustomerName    string  `json:"customer_name,omitempty"`
	ProviderName    string  `json:"provider_name,omitempty"`
}

type CancelBookingRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

type StartJobRequestBody struct {
	Code string `json:"code" binding:"required"`
}

type CompleteJobRequestBody struct {
	Code    string  `json:"code" binding:"required"`
	Amount  float64 `json:"amount" binding:"required"`
	Details string  `json:"details" binding:"required"`
}

type GatewayPaymentRequestBody struct {
	PaymentID string `json:"payment_id" binding:"required"`
	Status    string `json:"status" binding:"required,oneof=completed failed"`
}

type SlotsQueryParams struct {
	Date string `form:"date" binding:"required,bookdate"`
}

type BookingRequestParams struct {
	ID string `uri:"id" binding:"required"`
}

type ProviderRequestParams struct {
	ID string `uri:"id" binding:"required"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

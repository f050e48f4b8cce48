package models

import (
	"fmt"
	"sbs/src/types"
	"time"
)

// Booking is a single document in the bookings collection. Its identity is
// derived from the slot it occupies, see SlotID.
type Booking struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customer_id"`
	ProviderID      string              `json:"provider_id"`
	CustomerName    string              `json:"customer_name,omitempty"`
	ProviderName    string              `json:"provider_name,omitempty"`
	Date            time.Time           `json:"date"`
	StartTime       string              `json:"start_time"`
	EndTime         string              `json:"end_time,omitempty"`
	DurationMinutes int                 `json:"duration_minutes,omitempty"`
	Status          types.BookingStatus `json:"status"`
	PaymentStatus   types.PaymentStatus `json:"payment_status,omitempty"`
	TotalPrice      float64             `json:"total_price,omitempty"`
	Notes           string              `json:"notes,omitempty"`

	StartCode      string     `json:"start_code,omitempty"`
	CompletionCode string     `json:"completion_code,omitempty"`
	CodeExpiresAt  *time.Time `json:"code_expires_at,omitempty"`
	CodeAttempts   int        `json:"-"`

	FinalBillAmount    float64                  `json:"final_bill_amount,omitempty"`
	BillDetails        string                   `json:"bill_details,omitempty"`
	FinalPaymentStatus types.FinalPaymentStatus `json:"final_payment_status,omitempty"`
	FinalPaymentID     string                   `json:"final_payment_id,omitempty"`
	PaymentMethod      types.PaymentMethod      `json:"payment_method,omitempty"`
	PaidAt             *time.Time               `json:"paid_at,omitempty"`

	CancelReason string `json:"cancel_reason,omitempty"`
	CancelledBy  string `json:"cancelled_by,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Document field names of the bookings collection.
const (
	FieldCustomerID         = "customerId"
	FieldProviderID         = "providerId"
	FieldCustomerName       = "customerName"
	FieldProviderName       = "providerName"
	FieldDate               = "date"
	FieldStartTime          = "startTime"
	FieldEndTime            = "endTime"
	FieldDurationMinutes    = "durationMinutes"
	FieldStatus             = "status"
	FieldPaymentStatus      = "paymentStatus"
	FieldTotalPrice         = "totalPrice"
	FieldNotes              = "notes"
	FieldStartCode          = "startCode"
	FieldCompletionCode     = "completionCode"
	FieldCodeExpiresAt      = "codeExpiresAt"
	FieldCodeAttempts       = "codeAttempts"
	FieldFinalBillAmount    = "finalBillAmount"
	FieldBillDetails        = "billDetails"
	FieldFinalPaymentStatus = "finalPaymentStatus"
	FieldFinalPaymentID     = "finalPaymentId"
	FieldPaymentMethod      = "paymentMethod"
	FieldPaidAt             = "paidAt"
	FieldCancelReason       = "cancelReason"
	FieldCancelledBy        = "cancelledBy"
	FieldCreatedAt          = "createdAt"
	FieldUpdatedAt          = "updatedAt"
)

// NormalizeDate strips the time-of-day component. Two callers booking the
// same day with different wall-clock times must land on the same slot.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SlotID derives the deterministic document id for a slot. Same slot, same
// id: the store's create-if-absent write is what enforces exclusivity.
func SlotID(providerID string, date time.Time, startTime string) string {
	return fmt.Sprintf("%s_%d_%s", providerID, NormalizeDate(date).Unix(), startTime)
}

// BookingFromDoc maps a raw document onto a Booking. Fields written by older
// releases may be missing; absent fields keep their zero values.
func BookingFromDoc(id string, data map[string]any) *Booking {
	b := &Booking{
		ID:                 id,
		CustomerID:         asString(data[FieldCustomerID]),
		ProviderID:         asString(data[FieldProviderID]),
		CustomerName:       asString(data[FieldCustomerName]),
		ProviderName:       asString(data[FieldProviderName]),
		Date:               asTime(data[FieldDate]),
		StartTime:          asString(data[FieldStartTime]),
		EndTime:            asString(data[FieldEndTime]),
		DurationMinutes:    asInt(data[FieldDurationMinutes]),
		Status:             types.BookingStatus(asString(data[FieldStatus])),
		PaymentStatus:      types.PaymentStatus(asString(data[FieldPaymentStatus])),
		TotalPrice:         asFloat(data[FieldTotalPrice]),
		Notes:              asString(data[FieldNotes]),
		StartCode:          asString(data[FieldStartCode]),
		CompletionCode:     asString(data[FieldCompletionCode]),
		CodeAttempts:       asInt(data[FieldCodeAttempts]),
		FinalBillAmount:    asFloat(data[FieldFinalBillAmount]),
		BillDetails:        asString(data[FieldBillDetails]),
		FinalPaymentStatus: types.FinalPaymentStatus(asString(data[FieldFinalPaymentStatus])),
		FinalPaymentID:     asString(data[FieldFinalPaymentID]),
		PaymentMethod:      types.PaymentMethod(asString(data[FieldPaymentMethod])),
		CancelReason:       asString(data[FieldCancelReason]),
		CancelledBy:        asString(data[FieldCancelledBy]),
		CreatedAt:          asTime(data[FieldCreatedAt]),
		UpdatedAt:          asTime(data[FieldUpdatedAt]),
	}
	if t := asTime(data[FieldCodeExpiresAt]); !t.IsZero() {
		b.CodeExpiresAt = &t
	}
	if t := asTime(data[FieldPaidAt]); !t.IsZero() {
		b.PaidAt = &t
	}
	return b
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

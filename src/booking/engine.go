// Package booking owns the booking lifecycle: slot reservation, the status
// state machine, the start/completion code protocol and final-bill
// bookkeeping. Every transition is caller-invoked; the engine runs no
// background jobs and performs no retries of its own.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"sbs/src/codes"
	"sbs/src/config"
	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/notify"
	"sbs/src/store"
	"sbs/src/types"
)

type Engine struct {
	store            store.Client
	notifier         *notify.Dispatcher
	collection       string
	codeTTL          time.Duration
	requireStartCode bool
}

func New(st store.Client, notifier *notify.Dispatcher) *Engine {
	return &Engine{
		store:            st,
		notifier:         notifier,
		collection:       config.BOOKINGS_COLLECTION,
		codeTTL:          config.GetCompletionCodeTTL(),
		requireStartCode: config.RequireStartCode(),
	}
}

var defaultEngine *Engine

func GetEngine() *Engine {
	if defaultEngine != nil {
		return defaultEngine
	}
	fs, err := lib.GetFirestore()
	if err != nil {
		log.Printf("Error connecting to document store: %s\n", err.Error())
		panic(err)
	}
	sinks := []notify.Sink{notify.FCMSink{}}
	if os.Getenv("KAFKA_BROKER") != "" {
		sinks = append(sinks, notify.KafkaSink{Topic: "BookingNotifications"})
	}
	defaultEngine = New(store.NewFirestoreClient(fs), notify.NewDispatcher(sinks...))
	return defaultEngine
}

// NewEngine Replace engine instance with a custom implementation
func NewEngine(e *Engine) *Engine {
	defaultEngine = e
	return e
}

type ReserveSlotParams struct {
	CustomerID      string
	ProviderID      string
	Date            time.Time
	StartTime       string
	DurationMinutes int
	TotalPrice      float64
	Notes           string
	CustomerName    string
	ProviderName    string
}

// ReserveSlot creates a booking at the slot's deterministic document id.
// An absent document is written with a conditional create so two racing
// callers cannot both win; a cancelled or rejected document is overwritten
// in place, making the slot bookable again without manual cleanup.
func (e *Engine) ReserveSlot(ctx context.Context, params ReserveSlotParams) (string, error) {
	start, err := time.Parse(config.TIME_SLOT_FORMAT, params.StartTime)
	if err != nil {
		return "", &ValidationError{Field: "start_time", Reason: "must be in HH:MM format"}
	}
	if params.DurationMinutes <= 0 {
		return "", &ValidationError{Field: "duration_minutes", Reason: "must be greater than zero"}
	}
	if params.CustomerID == "" || params.ProviderID == "" {
		return "", &ValidationError{Field: "booking", Reason: "customer and provider are required"}
	}

	day := models.NormalizeDate(params.Date)
	id := models.SlotID(params.ProviderID, day, params.StartTime)

	existing, err := e.store.Get(ctx, e.collection, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", &StoreUnavailableError{Op: "get", Err: err}
	}
	if existing != nil {
		current := models.BookingFromDoc(existing.ID, existing.Data)
		if current.Status != types.BOOKING_CANCELLED && current.Status != types.BOOKING_REJECTED {
			return "", ErrSlotTaken
		}
	}

	startCode, err := codes.New(config.CODE_LENGTH)
	if err != nil {
		return "", err
	}
	endTime := start.Add(time.Duration(params.DurationMinutes) * time.Minute).Format(config.TIME_SLOT_FORMAT)

	fields := map[string]any{
		models.FieldCustomerID:      params.CustomerID,
		models.FieldProviderID:      params.ProviderID,
		models.FieldCustomerName:    params.CustomerName,
		models.FieldProviderName:    params.ProviderName,
		models.FieldDate:            day,
		models.FieldStartTime:       params.StartTime,
		models.FieldEndTime:         endTime,
		models.FieldDurationMinutes: params.DurationMinutes,
		models.FieldStatus:          string(types.BOOKING_PENDING),
		models.FieldPaymentStatus:   string(types.PAYMENT_UNPAID),
		models.FieldTotalPrice:      params.TotalPrice,
		models.FieldNotes:           params.Notes,
		models.FieldStartCode:       startCode,
		models.FieldCodeAttempts:    0,
		models.FieldCreatedAt:       store.ServerTimestamp,
		models.FieldUpdatedAt:       store.ServerTimestamp,
	}

	if existing == nil {
		if err := e.store.Create(ctx, e.collection, id, fields); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				// lost the race for this slot
				return "", ErrSlotTaken
			}
			return "", &StoreUnavailableError{Op: "create", Err: err}
		}
	} else {
		if err := e.store.Set(ctx, e.collection, id, fields); err != nil {
			return "", &StoreUnavailableError{Op: "set", Err: err}
		}
	}

	customer := params.CustomerName
	if customer == "" {
		customer = "A customer"
	}
	e.emit(params.ProviderID, "New booking request",
		fmt.Sprintf("%s requested %s at %s", customer, day.Format(config.DATE_PARSE_FORMAT), params.StartTime),
		map[string]string{"bookingId": id, "type": "booking_requested"})
	return id, nil
}

// ListBookedSlots returns the start times of live bookings for the
// provider on the given day, used to render slot availability.
func (e *Engine) ListBookedSlots(ctx context.Context, providerID string, date time.Time) ([]string, error) {
	docs, err := e.store.Query(ctx, e.collection, store.Query{
		Where: []store.Where{
			{Path: models.FieldProviderID, Op: store.OpEqual, Value: providerID},
			{Path: models.FieldDate, Op: store.OpEqual, Value: models.NormalizeDate(date)},
			{Path: models.FieldStatus, Op: store.OpIn, Value: []string{
				string(types.BOOKING_PENDING),
				string(types.BOOKING_CONFIRMED),
				string(types.BOOKING_IN_PROGRESS),
				string(types.BOOKING_COMPLETED),
			}},
		},
		OrderBy: models.FieldStartTime,
	})
	if err != nil {
		return nil, &StoreUnavailableError{Op: "query", Err: err}
	}
	slots := make([]string, 0, len(docs))
	for _, doc := range docs {
		slots = append(slots, models.BookingFromDoc(doc.ID, doc.Data).StartTime)
	}
	return slots, nil
}

func (e *Engine) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return e.fetch(ctx, id)
}

func (e *Engine) ListCustomerBookings(ctx context.Context, customerID string) ([]*models.Booking, error) {
	return e.list(ctx, models.FieldCustomerID, customerID)
}

func (e *Engine) ListProviderBookings(ctx context.Context, providerID string) ([]*models.Booking, error) {
	return e.list(ctx, models.FieldProviderID, providerID)
}

// AcceptBooking moves a pending booking to confirmed.
func (e *Engine) AcceptBooking(ctx context.Context, id string) error {
	b, err := e.fetch(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != types.BOOKING_PENDING {
		return &InvalidTransitionError{From: b.Status, To: types.BOOKING_CONFIRMED}
	}
	if err := e.update(ctx, id, map[string]any{
		models.FieldStatus: string(types.BOOKING_CONFIRMED),
	}); err != nil {
		return err
	}
	e.emit(b.CustomerID, "Booking confirmed",
		fmt.Sprintf("%s accepted your booking for %s at %s", displayName(b.ProviderName, "The provider"), b.Date.Format(config.DATE_PARSE_FORMAT), b.StartTime),
		map[string]string{"bookingId": id, "type": "booking_confirmed"})
	return nil
}

// DeclineBooking cancels a booking that is still pending.
func (e *Engine) DeclineBooking(ctx context.Context, id, by, reason string) error {
	return e.cancel(ctx, id, by, reason, true)
}

// CancelBooking cancels a pending or confirmed booking. Cancellation is a
// status value, never a document removal: the slot becomes bookable again.
func (e *Engine) CancelBooking(ctx context.Context, id, by, reason string) error {
	return e.cancel(ctx, id, by, reason, false)
}

func (e *Engine) cancel(ctx context.Context, id, by, reason string, declineOnly bool) error {
	b, err := e.fetch(ctx, id)
	if err != nil {
		return err
	}
	allowed := b.Status == types.BOOKING_PENDING
	if !declineOnly {
		allowed = allowed || b.Status == types.BOOKING_CONFIRMED
	}
	if !allowed {
		return &InvalidTransitionError{From: b.Status, To: types.BOOKING_CANCELLED}
	}
	if err := e.update(ctx, id, map[string]any{
		models.FieldStatus:       string(types.BOOKING_CANCELLED),
		models.FieldCancelReason: reason,
		models.FieldCancelledBy:  by,
	}); err != nil {
		return err
	}
	title := "Booking cancelled"
	if declineOnly {
		title = "Booking declined"
	}
	body := fmt.Sprintf("The booking for %s at %s was cancelled", b.Date.Format(config.DATE_PARSE_FORMAT), b.StartTime)
	if reason != "" {
		body = fmt.Sprintf("%s: %s", body, reason)
	}
	meta := map[string]string{"bookingId": id, "type": "booking_cancelled"}
	e.emit(b.CustomerID, title, body, meta)
	e.emit(b.ProviderID, title, body, meta)
	return nil
}

// StartJob validates the start code the customer shared with the provider
// and moves the booking to in_progress, issuing a fresh completion code.
// Bookings that predate the start-code protocol carry no start code; the
// relaxed policy lets those through.
func (e *Engine) StartJob(ctx context.Context, id, startCode string) (string, error) {
	b, err := e.fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if b.Status != types.BOOKING_CONFIRMED {
		return "", &InvalidTransitionError{From: b.Status, To: types.BOOKING_IN_PROGRESS}
	}
	if b.StartCode == "" {
		if e.requireStartCode {
			return "", &InvalidCodeError{Kind: StartCode}
		}
		log.Printf("Booking %s has no start code, skipping validation\n", id)
	} else if !codes.Matches(b.StartCode, startCode) {
		return "", &InvalidCodeError{Kind: StartCode}
	}

	completionCode, expiresAt, err := codes.NewWithExpiry(config.CODE_LENGTH, e.codeTTL)
	if err != nil {
		return "", err
	}
	if err := e.update(ctx, id, map[string]any{
		models.FieldStatus:         string(types.BOOKING_IN_PROGRESS),
		models.FieldCompletionCode: completionCode,
		models.FieldCodeExpiresAt:  expiresAt,
		models.FieldCodeAttempts:   0,
	}); err != nil {
		return "", err
	}
	e.emit(b.CustomerID, "Job started",
		fmt.Sprintf("Your completion code is %s. Share it with %s once the work is done.", completionCode, displayName(b.ProviderName, "the provider")),
		map[string]string{"bookingId": id, "type": "job_started", "completionCode": completionCode})
	return completionCode, nil
}

// CompleteJob validates the completion code and records the final bill in
// the same write that moves the booking to completed. Each failed code
// submission burns an attempt; the third failure locks completion until
// the customer regenerates the code.
func (e *Engine) CompleteJob(ctx context.Context, id, code string, amount float64, details string) error {
	b, err := e.fetch(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != types.BOOKING_IN_PROGRESS {
		return &InvalidTransitionError{From: b.Status, To: types.BOOKING_COMPLETED}
	}
	if b.CompletionCode == "" {
		return ErrJobNotStarted
	}
	if b.CodeAttempts >= config.MAX_CODE_ATTEMPTS {
		return ErrCodeLocked
	}
	if b.CodeExpiresAt != nil && codes.Expired(*b.CodeExpiresAt, time.Now()) {
		return ErrCodeExpired
	}
	if !codes.Matches(b.CompletionCode, code) {
		attempts := b.CodeAttempts + 1
		if err := e.update(ctx, id, map[string]any{
			models.FieldCodeAttempts: attempts,
		}); err != nil {
			return err
		}
		if attempts >= config.MAX_CODE_ATTEMPTS {
			return ErrCodeLocked
		}
		return &InvalidCodeError{Kind: CompletionCode, AttemptsLeft: config.MAX_CODE_ATTEMPTS - attempts}
	}
	if amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "final bill amount must be greater than zero"}
	}
	if strings.TrimSpace(details) == "" {
		return &ValidationError{Field: "details", Reason: "work summary must not be empty"}
	}

	if err := e.update(ctx, id, map[string]any{
		models.FieldStatus:             string(types.BOOKING_COMPLETED),
		models.FieldFinalBillAmount:    amount,
		models.FieldBillDetails:        details,
		models.FieldFinalPaymentStatus: string(types.FINAL_PAYMENT_PENDING),
	}); err != nil {
		return err
	}
	e.emit(b.CustomerID, "Job completed",
		fmt.Sprintf("%s billed %.2f for: %s", displayName(b.ProviderName, "The provider"), amount, details),
		map[string]string{"bookingId": id, "type": "job_completed"})
	return nil
}

// RegenerateCompletionCode issues a new completion code and expiry and
// resets the attempt counter. The previous code is invalid immediately.
func (e *Engine) RegenerateCompletionCode(ctx context.Context, id string) (string, error) {
	b, err := e.fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if b.Status != types.BOOKING_IN_PROGRESS {
		return "", ErrJobNotStarted
	}
	code, expiresAt, err := codes.NewWithExpiry(config.CODE_LENGTH, e.codeTTL)
	if err != nil {
		return "", err
	}
	if err := e.update(ctx, id, map[string]any{
		models.FieldCompletionCode: code,
		models.FieldCodeExpiresAt:  expiresAt,
		models.FieldCodeAttempts:   0,
	}); err != nil {
		return "", err
	}
	e.emit(b.CustomerID, "New completion code",
		fmt.Sprintf("Your new completion code is %s", code),
		map[string]string{"bookingId": id, "type": "code_regenerated", "completionCode": code})
	return code, nil
}

// RecordCashPayment marks the final bill as settled in cash. Decoupled
// from the completion write so billing and payment can happen at
// different times.
func (e *Engine) RecordCashPayment(ctx context.Context, id string) error {
	b, err := e.fetch(ctx, id)
	if err != nil {
		return err
	}
	if b.FinalPaymentStatus == "" {
		return ErrBillNotRecorded
	}
	if err := e.update(ctx, id, map[string]any{
		models.FieldFinalPaymentStatus: string(types.FINAL_PAYMENT_COMPLETED),
		models.FieldPaymentMethod:      string(types.PAYMENT_METHOD_CASH),
		models.FieldPaymentStatus:      string(types.PAYMENT_PAID),
		models.FieldPaidAt:             store.ServerTimestamp,
	}); err != nil {
		return err
	}
	e.emit(b.ProviderID, "Payment received",
		fmt.Sprintf("Cash payment of %.2f recorded for the booking on %s", b.FinalBillAmount, b.Date.Format(config.DATE_PARSE_FORMAT)),
		map[string]string{"bookingId": id, "type": "payment_recorded"})
	return nil
}

// RecordGatewayPayment records the outcome reported by the payment
// gateway. A failed outcome keeps the bill open for a later retry.
func (e *Engine) RecordGatewayPayment(ctx context.Context, id, paymentID, outcome string) error {
	b, err := e.fetch(ctx, id)
	if err != nil {
		return err
	}
	if b.FinalPaymentStatus == "" {
		return ErrBillNotRecorded
	}
	switch types.FinalPaymentStatus(outcome) {
	case types.FINAL_PAYMENT_COMPLETED:
		if err := e.update(ctx, id, map[string]any{
			models.FieldFinalPaymentStatus: string(types.FINAL_PAYMENT_COMPLETED),
			models.FieldFinalPaymentID:     paymentID,
			models.FieldPaymentMethod:      string(types.PAYMENT_METHOD_GATEWAY),
			models.FieldPaymentStatus:      string(types.PAYMENT_PAID),
			models.FieldPaidAt:             store.ServerTimestamp,
		}); err != nil {
			return err
		}
		e.emit(b.ProviderID, "Payment received",
			fmt.Sprintf("Online payment of %.2f recorded for the booking on %s", b.FinalBillAmount, b.Date.Format(config.DATE_PARSE_FORMAT)),
			map[string]string{"bookingId": id, "type": "payment_recorded"})
		return nil
	case types.FINAL_PAYMENT_FAILED:
		return e.update(ctx, id, map[string]any{
			models.FieldFinalPaymentStatus: string(types.FINAL_PAYMENT_FAILED),
			models.FieldFinalPaymentID:     paymentID,
		})
	}
	return &ValidationError{Field: "status", Reason: "must be completed or failed"}
}

func (e *Engine) fetch(ctx context.Context, id string) (*models.Booking, error) {
	doc, err := e.store.Get(ctx, e.collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreUnavailableError{Op: "get", Err: err}
	}
	return models.BookingFromDoc(doc.ID, doc.Data), nil
}

func (e *Engine) list(ctx context.Context, field, value string) ([]*models.Booking, error) {
	docs, err := e.store.Query(ctx, e.collection, store.Query{
		Where:   []store.Where{{Path: field, Op: store.OpEqual, Value: value}},
		OrderBy: models.FieldDate,
		Desc:    true,
		Limit:   50,
	})
	if err != nil {
		return nil, &StoreUnavailableError{Op: "query", Err: err}
	}
	bookings := make([]*models.Booking, 0, len(docs))
	for _, doc := range docs {
		bookings = append(bookings, models.BookingFromDoc(doc.ID, doc.Data))
	}
	return bookings, nil
}

func (e *Engine) update(ctx context.Context, id string, fields map[string]any) error {
	fields[models.FieldUpdatedAt] = store.ServerTimestamp
	if err := e.store.Update(ctx, e.collection, id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return &StoreUnavailableError{Op: "update", Err: err}
	}
	return nil
}

func (e *Engine) emit(recipientID, title, body string, metadata map[string]string) {
	if e.notifier == nil || recipientID == "" {
		return
	}
	e.notifier.Dispatch(notify.Intent{
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		Metadata:    metadata,
	})
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"sbs/src/booking"
	"sbs/src/config"
	"sbs/src/lib"
	"sbs/src/types"

	"github.com/gin-gonic/gin"
)

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			date, err := time.Parse(config.DATE_PARSE_FORMAT, body.Date)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			eng := booking.GetEngine()
			id, err := eng.ReserveSlot(ctx, booking.ReserveSlotParams{
				CustomerID:      ctx.GetString("uid"),
				ProviderID:      body.ProviderID,
				Date:            date,
				StartTime:       body.StartTime,
				DurationMinutes: body.DurationMinutes,
				TotalPrice:      body.TotalPrice,
				Notes:           body.Notes,
				CustomerName:    body.CustomerName,
				ProviderName:    body.ProviderName,
			})
			if err != nil {
				respondBookingError(ctx, err)
				return
			}
			go invalidateSlotCache(body.ProviderID, date)
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": id}})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			eng := booking.GetEngine()
			var err error
			var bookings any
			if ctx.Query("role") == "provider" {
				bookings, err = eng.ListProviderBookings(ctx, uid)
			} else {
				bookings, err = eng.ListCustomerBookings(ctx, uid)
			}
			if err != nil {
				respondBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.BookingRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			b, err := booking.GetEngine().GetBooking(ctx, params.ID)
			if err != nil {
				respondBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": b})
		}).
		GET("/providers/:id/slots", func(ctx *gin.Context) {
			var params types.ProviderRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var query types.SlotsQueryParams
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			date, err := time.Parse(config.DATE_PARSE_FORMAT, query.Date)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if slots, ok := cachedSlots(params.ID, date); ok {
				ctx.JSON(http.StatusOK, gin.H{"data": slots, "count": len(slots)})
				return
			}
			slots, err := booking.GetEngine().ListBookedSlots(ctx, params.ID, date)
			if err != nil {
				respondBookingError(ctx, err)
				return
			}
			go cacheSlots(params.ID, date, slots)
			ctx.JSON(http.StatusOK, gin.H{"data": slots, "count": len(slots)})
		}).
		PUT("/bookings/:id/accept", func(ctx *gin.Context) {
			var params types.BookingRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			if err := booking.GetEngine().AcceptBooking(ctx, params.ID); err != nil {
				respondBookingError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/bookings/:id/decline", func(ctx *gin.Context) {
			cancelBooking(ctx, true)
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			cancelBooking(ctx, false)
		}).
		POST("/bookings/:id/start", func(ctx *gin.Context) {
			var params types.BookingRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.StartJobRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			code, err := booking.GetEngine().StartJob(ctx, params.ID, body.Code)
			if err != nil {
				respondBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"completion_code": code}})
		}).
		POST("/bookings/:id/complete", func(ctx *gin.Context) {
			var params types.BookingRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CompleteJobRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := booking.GetEngine().CompleteJob(ctx, params.ID, body.Code, body.Amount, body.Details); err != nil {
				respondBookingError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/bookings/:id/code", func(ctx *gin.Context) {
			var params types.BookingRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			code, err := booking.GetEngine().RegenerateCompletionCode(ctx, params.ID)
			if err != nil {
				respondBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"completion_code": code}})
		}).
		POST("/bookings/:id/payments/cash", func(ctx *gin.Context) {
			var params types.BookingRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			if err := booking.GetEngine().RecordCashPayment(ctx, params.ID); err != nil {
				respondBookingError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/bookings/:id/payments/gateway", func(ctx *gin.Context) {
			var params types.BookingRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.GatewayPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := booking.GetEngine().RecordGatewayPayment(ctx, params.ID, body.PaymentID, body.Status); err != nil {
				respondBookingError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

func cancelBooking(ctx *gin.Context, decline bool) {
	var params types.BookingRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.Status(http.StatusBadRequest)
		return
	}
	var body types.CancelBookingRequestBody
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	eng := booking.GetEngine()
	uid := ctx.GetString("uid")
	var err error
	if decline {
		err = eng.DeclineBooking(ctx, params.ID, uid, body.Reason)
	} else {
		err = eng.CancelBooking(ctx, params.ID, uid, body.Reason)
	}
	if err != nil {
		respondBookingError(ctx, err)
		return
	}
	go invalidateSlotCacheForBooking(ctx.Copy(), params.ID)
	ctx.Status(http.StatusNoContent)
}

func respondBookingError(ctx *gin.Context, err error) {
	var transitionErr *booking.InvalidTransitionError
	var codeErr *booking.InvalidCodeError
	var validationErr *booking.ValidationError
	var storeErr *booking.StoreUnavailableError
	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrCodeLocked):
		ctx.JSON(http.StatusLocked, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrCodeExpired):
		ctx.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrJobNotStarted), errors.Is(err, booking.ErrBillNotRecorded):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &transitionErr):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &codeErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &storeErr):
		log.Printf("Document store failure: %s\n", err.Error())
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	default:
		log.Printf("Could not complete request: %s\n", err.Error())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error while processing request"})
	}
}

func slotCacheKey(providerID string, date time.Time) string {
	return fmt.Sprintf("slots:%s:%s", providerID, date.Format(config.DATE_PARSE_FORMAT))
}

func cachedSlots(providerID string, date time.Time) ([]string, bool) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return nil, false
	}
	val, err := rd.Get(context.Background(), slotCacheKey(providerID, date)).Result()
	if err != nil {
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func cacheSlots(providerID string, date time.Time, slots []string) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	value, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := rd.SetEx(context.Background(), slotCacheKey(providerID, date), string(value), 5*time.Minute).Err(); err != nil {
		log.Printf("Error caching slots for %s: %s\n", providerID, err.Error())
	}
}

func invalidateSlotCache(providerID string, date time.Time) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Del(context.Background(), slotCacheKey(providerID, date)).Err(); err != nil {
		log.Printf("Error invalidating slot cache for %s: %s\n", providerID, err.Error())
	}
}

func invalidateSlotCacheForBooking(ctx context.Context, id string) {
	b, err := booking.GetEngine().GetBooking(ctx, id)
	if err != nil {
		log.Printf("Error refreshing slot cache for booking %s: %s\n", id, err.Error())
		return
	}
	invalidateSlotCache(b.ProviderID, b.Date)
}

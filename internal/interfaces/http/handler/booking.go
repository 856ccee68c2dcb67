package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	bookingapp "github.com/localcooks/backend/internal/application/booking"
	"github.com/localcooks/backend/internal/domain/identity"
)

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	BaseHandler
	bookingService *bookingapp.BookingService
	receiptService *bookingapp.ReceiptService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *bookingapp.BookingService, receiptService *bookingapp.ReceiptService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		receiptService: receiptService,
	}
}

// Create godoc
// @Summary      Create a booking
// @Description  Book kitchen space; places a payment hold on the chef's card
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body bookingapp.CreateBookingRequest true "Booking data"
// @Success      201 {object} dto.Response{data=bookingapp.BookingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      402 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req bookingapp.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	b, err := h.bookingService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, b)
}

// GetByID godoc
// @Summary      Get booking by ID
// @Description  Retrieve a booking the caller is party to
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {object} dto.Response{data=bookingapp.BookingResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bookings/{id} [get]
func (h *BookingHandler) GetByID(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid booking ID format")
		return
	}

	var b *bookingapp.BookingResponse
	if actor.Role == identity.RoleChef {
		b, err = h.bookingService.GetForChef(c.Request.Context(), actor, bookingID)
	} else {
		b, err = h.bookingService.GetForManager(c.Request.Context(), actor, bookingID)
	}
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, b)
}

// List godoc
// @Summary      List bookings
// @Description  Retrieve bookings; chefs see their own, managers see their locations'
// @Tags         bookings
// @Produce      json
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]bookingapp.BookingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter bookingapp.BookingListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var result *bookingapp.BookingListResult
	if actor.Role == identity.RoleChef {
		result, err = h.bookingService.ListForChef(c.Request.Context(), actor, &filter)
	} else {
		result, err = h.bookingService.ListForManager(c.Request.Context(), actor, &filter)
	}
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Bookings, result.Total, result.Page, result.PageSize)
}

// Decide godoc
// @Summary      Decide a booking
// @Description  Approve or decline each requested item; approved value is captured, the rest released
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Param        request body bookingapp.DecideBookingRequest true "Per-item verdicts"
// @Success      200 {object} dto.Response{data=bookingapp.BookingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bookings/{id}/decide [post]
func (h *BookingHandler) Decide(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid booking ID format")
		return
	}

	var req bookingapp.DecideBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	b, err := h.bookingService.Decide(c.Request.Context(), actor, bookingID, &req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, b)
}

// Cancel godoc
// @Summary      Cancel a booking
// @Description  Cancel a booking; the hold is released or partially captured per the cancellation policy
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Param        request body bookingapp.CancelBookingRequest true "Cancellation reason"
// @Success      200 {object} dto.Response{data=bookingapp.BookingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid booking ID format")
		return
	}

	var req bookingapp.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	b, err := h.bookingService.Cancel(c.Request.Context(), actor, bookingID, &req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, b)
}

// Complete godoc
// @Summary      Complete a booking
// @Description  Mark an elapsed booking as completed, opening the claim window
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {object} dto.Response{data=bookingapp.BookingResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid booking ID format")
		return
	}

	b, err := h.bookingService.Complete(c.Request.Context(), actor, bookingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, b)
}

// Refund godoc
// @Summary      Refund a booking
// @Description  Refund captured funds, in full or for a single item
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Param        request body bookingapp.RefundBookingRequest true "Refund data"
// @Success      200 {object} dto.Response{data=bookingapp.BookingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bookings/{id}/refund [post]
func (h *BookingHandler) Refund(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid booking ID format")
		return
	}

	var req bookingapp.RefundBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	b, err := h.bookingService.Refund(c.Request.Context(), actor, bookingID, &req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, b)
}

// Receipt godoc
// @Summary      Download a booking receipt
// @Description  Render the booking receipt as a PDF
// @Tags         bookings
// @Produce      application/pdf
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {file} binary
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bookings/{id}/receipt [get]
func (h *BookingHandler) Receipt(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid booking ID format")
		return
	}

	pdf, filename, err := h.receiptService.Render(c.Request.Context(), actor, bookingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

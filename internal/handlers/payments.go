package handlers

import (
	"net/http"

	"telehealth-server/internal/services"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles the bKash checkout.
type PaymentHandler struct {
	Payments PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

// CreatePaymentRequest names the appointment to pay for, by id or by its
// doctor, date and slot.
type CreatePaymentRequest struct {
	AppointmentID string   `json:"appointmentId"`
	DoctorID      string   `json:"doctorId"`
	Date          string   `json:"date"`
	TimeSlot      string   `json:"timeSlot"`
	Amount        *float64 `json:"amount" binding:"omitempty,gt=0"`
}

// CreateBkashPayment starts a checkout and returns the bKash URL the client
// redirects to.
func (h *PaymentHandler) CreateBkashPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session, err := h.Payments.Create(c.Request.Context(), userID, services.PaymentInput{
		AppointmentID: req.AppointmentID,
		DoctorID:      req.DoctorID,
		Date:          req.Date,
		TimeSlot:      req.TimeSlot,
		Amount:        req.Amount,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessWith(c, http.StatusOK, "Payment created successfully", gin.H{
		"bkashURL": session.BkashURL,
		"data":     session,
	})
}

// BkashCallback is where bKash sends the payer's browser back. It always
// answers with a redirect to the client app.
func (h *PaymentHandler) BkashCallback(c *gin.Context) {
	target := h.Payments.HandleCallback(c.Request.Context(), c.Query("paymentID"), c.Query("status"))
	c.Redirect(http.StatusFound, target)
}

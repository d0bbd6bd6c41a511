package handlers

import (
	"telehealth-server/internal/middleware"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler handles booking and appointment listing requests.
type AppointmentHandler struct {
	Booking BookingService
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(booking BookingService) *AppointmentHandler {
	return &AppointmentHandler{Booking: booking}
}

// BookAppointmentRequest represents the request body for booking a slot.
type BookAppointmentRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
	Date     string `json:"date" binding:"required"`
	TimeSlot string `json:"timeSlot" binding:"required"`
}

// BookAppointment books a doctor's slot for the signed-in patient.
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req BookAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Booking.Book(c.Request.Context(), userID, req.DoctorID, req.Date, req.TimeSlot)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, "Appointment booked successfully", appointment)
}

// GetPatientAppointments lists the signed-in patient's appointments.
func (h *AppointmentHandler) GetPatientAppointments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	appointments, err := h.Booking.ForPatient(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetDoctorAppointments lists the signed-in doctor's appointments.
func (h *AppointmentHandler) GetDoctorAppointments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	appointments, err := h.Booking.ForDoctor(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetBookedSlots lists the occupied slots of a doctor, optionally for one
// ?date=.
func (h *AppointmentHandler) GetBookedSlots(c *gin.Context) {
	slots, err := h.Booking.BookedByDoctor(c.Request.Context(), c.Param("doctorId"), c.Query("date"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Booked slots fetched successfully", slots)
}

// GetAvailableSlots lists the free slots of a doctor on ?date=.
func (h *AppointmentHandler) GetAvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.BadRequest(c, "date query parameter is required")
		return
	}

	slots, err := h.Booking.AvailableSlots(c.Request.Context(), c.Param("doctorId"), date)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Available slots fetched successfully", slots)
}

// GetTodaySchedule lists the signed-in doctor's appointments for today.
func (h *AppointmentHandler) GetTodaySchedule(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	schedule, err := h.Booking.TodaySchedule(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Today's schedule fetched successfully", schedule)
}

// UpdateAppointmentStatusRequest represents the request body for updating an appointment's status.
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAppointmentStatus lets the doctor or patient of an appointment
// cancel or complete it.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Booking.UpdateStatus(c.Request.Context(), account, c.Param("id"), req.Status)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Appointment status updated successfully", appointment)
}

package handlers

import (
	"strings"

	"telehealth-server/internal/services"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler serves own profiles and the public doctor directory.
type UserHandler struct {
	Accounts AccountService
	Booking  BookingService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts AccountService, booking BookingService) *UserHandler {
	return &UserHandler{Accounts: accounts, Booking: booking}
}

// GetPatientProfile returns the signed-in patient.
func (h *UserHandler) GetPatientProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	patient, err := h.Accounts.Patient(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", patient.Sanitize())
}

// UpdatePatientProfileRequest represents the editable patient fields.
type UpdatePatientProfileRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *UserHandler) UpdatePatientProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpdatePatientProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient, err := h.Accounts.UpdatePatientProfile(c.Request.Context(), userID, req.Name)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Profile updated successfully", patient.Sanitize())
}

// GetDoctorProfile returns the signed-in doctor.
func (h *UserHandler) GetDoctorProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	doctor, err := h.Accounts.Doctor(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", doctor.Profile())
}

// UpdateDoctorProfileRequest represents the editable doctor fields. Omitted
// fields are left unchanged.
type UpdateDoctorProfileRequest struct {
	Bio             *string  `json:"bio"`
	Phone           *string  `json:"phone"`
	Address         *string  `json:"address"`
	Fees            *float64 `json:"fees" binding:"omitempty,gte=0"`
	Specializations []string `json:"specialization"`
	WorkExperience  *string  `json:"workExperience"`
}

func (h *UserHandler) UpdateDoctorProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpdateDoctorProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctor, err := h.Accounts.UpdateDoctorProfile(c.Request.Context(), userID, services.DoctorProfileUpdate{
		Bio:             req.Bio,
		Phone:           req.Phone,
		Address:         req.Address,
		Fees:            req.Fees,
		Specializations: req.Specializations,
		WorkExperience:  req.WorkExperience,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Profile updated successfully", doctor.Profile())
}

// GetDoctors lists the doctor directory, optionally filtered with
// ?specialization=.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	doctors, err := h.Accounts.ListDoctors(c.Request.Context(), strings.TrimSpace(c.Query("specialization")))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDoctorByID returns one doctor's public profile.
func (h *UserHandler) GetDoctorByID(c *gin.Context) {
	doctor, err := h.Accounts.Doctor(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Doctor fetched successfully", doctor.Profile())
}

// GetDoctorPatients lists the patients who booked the signed-in doctor.
func (h *UserHandler) GetDoctorPatients(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	clients, err := h.Booking.Clients(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Clients fetched successfully", clients)
}

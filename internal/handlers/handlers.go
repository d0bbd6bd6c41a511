// Package handlers exposes the services over HTTP with gin. Handlers bind and
// validate requests, call one service method and map its error with
// utils.HandleError.
package handlers

import (
	"context"

	"telehealth-server/internal/middleware"
	"telehealth-server/internal/models"
	"telehealth-server/internal/services"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AccountService is what the auth and profile handlers need.
type AccountService interface {
	RegisterPatient(ctx context.Context, name, email, password string) (*models.Patient, services.TokenPair, error)
	RegisterDoctor(ctx context.Context, reg services.DoctorRegistration) (*models.Doctor, error)
	Login(ctx context.Context, role models.Role, email, password string) (models.Account, services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (services.TokenPair, error)
	Logout(ctx context.Context, accountID, refreshToken string) error
	Patient(ctx context.Context, id string) (*models.Patient, error)
	UpdatePatientProfile(ctx context.Context, id, name string) (*models.Patient, error)
	Doctor(ctx context.Context, id string) (*models.Doctor, error)
	UpdateDoctorProfile(ctx context.Context, id string, u services.DoctorProfileUpdate) (*models.Doctor, error)
	ListDoctors(ctx context.Context, specialization string) ([]models.DoctorProfile, error)
}

// BookingService is what the appointment handlers need.
type BookingService interface {
	Book(ctx context.Context, patientID, doctorID, date, timeSlot string) (*models.Appointment, error)
	AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error)
	BookedByDoctor(ctx context.Context, doctorID, date string) ([]models.BookedSlot, error)
	ForPatient(ctx context.Context, patientID string) ([]models.AppointmentView, error)
	ForDoctor(ctx context.Context, doctorID string) ([]models.AppointmentView, error)
	TodaySchedule(ctx context.Context, doctorID string) ([]models.AppointmentView, error)
	Clients(ctx context.Context, doctorID string) ([]models.PatientSummary, error)
	UpdateStatus(ctx context.Context, actor models.Account, appointmentID, status string) (*models.Appointment, error)
}

// PaymentService is what the bKash handlers need.
type PaymentService interface {
	Create(ctx context.Context, patientID string, in services.PaymentInput) (*services.PaymentSession, error)
	HandleCallback(ctx context.Context, paymentID, status string) string
}

// StoryService is what the story and comment handlers need.
type StoryService interface {
	Upload(ctx context.Context, patientID string, in services.StoryInput) (models.StoryView, error)
	Mine(ctx context.Context, patientID string) ([]models.StoryView, error)
	All(ctx context.Context, viewerID string) ([]models.StoryView, error)
	Get(ctx context.Context, viewerID, storyID string) (models.StoryView, error)
	Update(ctx context.Context, patientID, storyID string, in services.StoryInput) (models.StoryView, error)
	Delete(ctx context.Context, patientID, storyID string) error
	Comment(ctx context.Context, doctorID, storyID, text string) (models.StoryView, error)
	EditComment(ctx context.Context, doctorID, storyID, commentID, text string) (models.StoryView, error)
	DeleteComment(ctx context.Context, doctorID, storyID, commentID string) (models.StoryView, error)
}

// currentUserID returns the authenticated account id, writing a 401 when
// the auth middleware did not run.
func currentUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok || userID == "" {
		utils.Unauthorized(c, "User not authenticated")
		return "", false
	}
	return userID, true
}

// accountView is the client-safe form of a patient or doctor.
func accountView(account models.Account) interface{} {
	switch a := account.(type) {
	case *models.Patient:
		return a.Sanitize()
	case *models.Doctor:
		return a.Profile()
	default:
		return nil
	}
}

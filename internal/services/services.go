// Package services holds the workflows behind the HTTP handlers: accounts,
// booking, payment and stories. Services return *utils.AppError values for
// every failure a client can act on.
package services

import (
	"context"
	"time"

	"telehealth-server/internal/bkash"
	"telehealth-server/internal/models"
)

// AccountStore is the persistence the account and booking workflows need.
type AccountStore interface {
	CreatePatient(ctx context.Context, p *models.Patient) error
	CreateDoctor(ctx context.Context, d *models.Doctor) error
	PatientByID(ctx context.Context, id string) (*models.Patient, error)
	PatientByEmail(ctx context.Context, email string) (*models.Patient, error)
	DoctorByID(ctx context.Context, id string) (*models.Doctor, error)
	DoctorByEmail(ctx context.Context, email string) (*models.Doctor, error)
	FindAccount(ctx context.Context, role models.Role, id string) (models.Account, error)
	ListDoctors(ctx context.Context) ([]models.Doctor, error)
	UpdatePatient(ctx context.Context, p *models.Patient, columns ...string) error
	UpdateDoctor(ctx context.Context, d *models.Doctor, columns ...string) error
	SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error
	RefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// AppointmentStore persists appointments and the payment ledger.
type AppointmentStore interface {
	SlotTaken(ctx context.Context, doctorID, date, timeSlot string) (bool, error)
	Create(ctx context.Context, a *models.Appointment) error
	ByID(ctx context.Context, id string) (*models.Appointment, error)
	ByPaymentID(ctx context.Context, paymentID string) (*models.Appointment, error)
	ForSlot(ctx context.Context, patientID, doctorID, date, timeSlot string) (*models.Appointment, error)
	ForPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	ForDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error)
	ScheduleOn(ctx context.Context, doctorID, date string) ([]models.Appointment, error)
	Booked(ctx context.Context, doctorID, date string) ([]models.Appointment, error)
	Clients(ctx context.Context, doctorID string) ([]models.Patient, error)
	Transition(ctx context.Context, a *models.Appointment, next models.AppointmentStatus) error
	AttachPayment(ctx context.Context, a *models.Appointment, invoiceNumber, paymentID string) error
	ConfirmPayment(ctx context.Context, a *models.Appointment, txn *models.PaymentTransaction) error
}

// StoryStore persists stories and comments.
type StoryStore interface {
	Create(ctx context.Context, s *models.Story) error
	ByID(ctx context.Context, id string) (*models.Story, error)
	List(ctx context.Context) ([]models.Story, error)
	ByAuthor(ctx context.Context, patientID string) ([]models.Story, error)
	Update(ctx context.Context, s *models.Story) error
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, c *models.Comment) error
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, storyID, commentID string) error
}

// Gateway is the payment provider.
type Gateway interface {
	CreatePayment(ctx context.Context, req bkash.CreateRequest) (*bkash.CreateResponse, error)
	ExecutePayment(ctx context.Context, paymentID string) (*bkash.ExecuteResponse, error)
	QueryPayment(ctx context.Context, paymentID string) (*bkash.ExecuteResponse, error)
}

// Locker claims a key for a short time across server instances.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// DefaultTimeSlots are the consultation slots every doctor offers.
var DefaultTimeSlots = []string{
	"05:00 pm",
	"06:00 pm",
	"06:30 pm",
	"07:00 pm",
	"07:30 pm",
	"08:00 pm",
	"08:30 pm",
}

package handlers

import (
	"context"

	"telehealth-server/internal/models"
	"telehealth-server/internal/services"

	"github.com/stretchr/testify/mock"
)

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) RegisterPatient(ctx context.Context, name, email, password string) (*models.Patient, services.TokenPair, error) {
	args := m.Called(ctx, name, email, password)
	p, _ := args.Get(0).(*models.Patient)
	return p, args.Get(1).(services.TokenPair), args.Error(2)
}

func (m *mockAccounts) RegisterDoctor(ctx context.Context, reg services.DoctorRegistration) (*models.Doctor, error) {
	args := m.Called(ctx, reg)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockAccounts) Login(ctx context.Context, role models.Role, email, password string) (models.Account, services.TokenPair, error) {
	args := m.Called(ctx, role, email, password)
	a, _ := args.Get(0).(models.Account)
	return a, args.Get(1).(services.TokenPair), args.Error(2)
}

func (m *mockAccounts) Refresh(ctx context.Context, refreshToken string) (services.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(services.TokenPair), args.Error(1)
}

func (m *mockAccounts) Logout(ctx context.Context, accountID, refreshToken string) error {
	return m.Called(ctx, accountID, refreshToken).Error(0)
}

func (m *mockAccounts) Patient(ctx context.Context, id string) (*models.Patient, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Patient)
	return p, args.Error(1)
}

func (m *mockAccounts) UpdatePatientProfile(ctx context.Context, id, name string) (*models.Patient, error) {
	args := m.Called(ctx, id, name)
	p, _ := args.Get(0).(*models.Patient)
	return p, args.Error(1)
}

func (m *mockAccounts) Doctor(ctx context.Context, id string) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockAccounts) UpdateDoctorProfile(ctx context.Context, id string, u services.DoctorProfileUpdate) (*models.Doctor, error) {
	args := m.Called(ctx, id, u)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockAccounts) ListDoctors(ctx context.Context, specialization string) ([]models.DoctorProfile, error) {
	args := m.Called(ctx, specialization)
	list, _ := args.Get(0).([]models.DoctorProfile)
	return list, args.Error(1)
}

type mockBooking struct{ mock.Mock }

func (m *mockBooking) Book(ctx context.Context, patientID, doctorID, date, timeSlot string) (*models.Appointment, error) {
	args := m.Called(ctx, patientID, doctorID, date, timeSlot)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockBooking) AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	args := m.Called(ctx, doctorID, date)
	list, _ := args.Get(0).([]string)
	return list, args.Error(1)
}

func (m *mockBooking) BookedByDoctor(ctx context.Context, doctorID, date string) ([]models.BookedSlot, error) {
	args := m.Called(ctx, doctorID, date)
	list, _ := args.Get(0).([]models.BookedSlot)
	return list, args.Error(1)
}

func (m *mockBooking) ForPatient(ctx context.Context, patientID string) ([]models.AppointmentView, error) {
	args := m.Called(ctx, patientID)
	list, _ := args.Get(0).([]models.AppointmentView)
	return list, args.Error(1)
}

func (m *mockBooking) ForDoctor(ctx context.Context, doctorID string) ([]models.AppointmentView, error) {
	args := m.Called(ctx, doctorID)
	list, _ := args.Get(0).([]models.AppointmentView)
	return list, args.Error(1)
}

func (m *mockBooking) TodaySchedule(ctx context.Context, doctorID string) ([]models.AppointmentView, error) {
	args := m.Called(ctx, doctorID)
	list, _ := args.Get(0).([]models.AppointmentView)
	return list, args.Error(1)
}

func (m *mockBooking) Clients(ctx context.Context, doctorID string) ([]models.PatientSummary, error) {
	args := m.Called(ctx, doctorID)
	list, _ := args.Get(0).([]models.PatientSummary)
	return list, args.Error(1)
}

func (m *mockBooking) UpdateStatus(ctx context.Context, actor models.Account, appointmentID, status string) (*models.Appointment, error) {
	args := m.Called(ctx, actor, appointmentID, status)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) Create(ctx context.Context, patientID string, in services.PaymentInput) (*services.PaymentSession, error) {
	args := m.Called(ctx, patientID, in)
	s, _ := args.Get(0).(*services.PaymentSession)
	return s, args.Error(1)
}

func (m *mockPayments) HandleCallback(ctx context.Context, paymentID, status string) string {
	return m.Called(ctx, paymentID, status).String(0)
}

type mockStories struct{ mock.Mock }

func (m *mockStories) Upload(ctx context.Context, patientID string, in services.StoryInput) (models.StoryView, error) {
	args := m.Called(ctx, patientID, in)
	return args.Get(0).(models.StoryView), args.Error(1)
}

func (m *mockStories) Mine(ctx context.Context, patientID string) ([]models.StoryView, error) {
	args := m.Called(ctx, patientID)
	list, _ := args.Get(0).([]models.StoryView)
	return list, args.Error(1)
}

func (m *mockStories) All(ctx context.Context, viewerID string) ([]models.StoryView, error) {
	args := m.Called(ctx, viewerID)
	list, _ := args.Get(0).([]models.StoryView)
	return list, args.Error(1)
}

func (m *mockStories) Get(ctx context.Context, viewerID, storyID string) (models.StoryView, error) {
	args := m.Called(ctx, viewerID, storyID)
	return args.Get(0).(models.StoryView), args.Error(1)
}

func (m *mockStories) Update(ctx context.Context, patientID, storyID string, in services.StoryInput) (models.StoryView, error) {
	args := m.Called(ctx, patientID, storyID, in)
	return args.Get(0).(models.StoryView), args.Error(1)
}

func (m *mockStories) Delete(ctx context.Context, patientID, storyID string) error {
	return m.Called(ctx, patientID, storyID).Error(0)
}

func (m *mockStories) Comment(ctx context.Context, doctorID, storyID, text string) (models.StoryView, error) {
	args := m.Called(ctx, doctorID, storyID, text)
	return args.Get(0).(models.StoryView), args.Error(1)
}

func (m *mockStories) EditComment(ctx context.Context, doctorID, storyID, commentID, text string) (models.StoryView, error) {
	args := m.Called(ctx, doctorID, storyID, commentID, text)
	return args.Get(0).(models.StoryView), args.Error(1)
}

func (m *mockStories) DeleteComment(ctx context.Context, doctorID, storyID, commentID string) (models.StoryView, error) {
	args := m.Called(ctx, doctorID, storyID, commentID)
	return args.Get(0).(models.StoryView), args.Error(1)
}

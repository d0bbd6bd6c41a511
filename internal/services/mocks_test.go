package services

import (
	"context"
	"time"

	"telehealth-server/internal/bkash"
	"telehealth-server/internal/models"
	"telehealth-server/internal/notify"

	"github.com/stretchr/testify/mock"
)

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) CreatePatient(ctx context.Context, p *models.Patient) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockAccounts) CreateDoctor(ctx context.Context, d *models.Doctor) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockAccounts) PatientByID(ctx context.Context, id string) (*models.Patient, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Patient)
	return p, args.Error(1)
}

func (m *mockAccounts) PatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*models.Patient)
	return p, args.Error(1)
}

func (m *mockAccounts) DoctorByID(ctx context.Context, id string) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockAccounts) DoctorByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	args := m.Called(ctx, email)
	d, _ := args.Get(0).(*models.Doctor)
	return d, args.Error(1)
}

func (m *mockAccounts) FindAccount(ctx context.Context, role models.Role, id string) (models.Account, error) {
	args := m.Called(ctx, role, id)
	a, _ := args.Get(0).(models.Account)
	return a, args.Error(1)
}

func (m *mockAccounts) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Doctor)
	return list, args.Error(1)
}

func (m *mockAccounts) UpdatePatient(ctx context.Context, p *models.Patient, columns ...string) error {
	return m.Called(ctx, p, columns).Error(0)
}

func (m *mockAccounts) UpdateDoctor(ctx context.Context, d *models.Doctor, columns ...string) error {
	return m.Called(ctx, d, columns).Error(0)
}

func (m *mockAccounts) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockAccounts) RefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	args := m.Called(ctx, token)
	t, _ := args.Get(0).(*models.RefreshToken)
	return t, args.Error(1)
}

func (m *mockAccounts) RevokeRefreshToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type mockAppointments struct{ mock.Mock }

func (m *mockAppointments) SlotTaken(ctx context.Context, doctorID, date, timeSlot string) (bool, error) {
	args := m.Called(ctx, doctorID, date, timeSlot)
	return args.Bool(0), args.Error(1)
}

func (m *mockAppointments) Create(ctx context.Context, a *models.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAppointments) ByID(ctx context.Context, id string) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointments) ByPaymentID(ctx context.Context, paymentID string) (*models.Appointment, error) {
	args := m.Called(ctx, paymentID)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointments) ForSlot(ctx context.Context, patientID, doctorID, date, timeSlot string) (*models.Appointment, error) {
	args := m.Called(ctx, patientID, doctorID, date, timeSlot)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointments) ForPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	args := m.Called(ctx, patientID)
	list, _ := args.Get(0).([]models.Appointment)
	return list, args.Error(1)
}

func (m *mockAppointments) ForDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	args := m.Called(ctx, doctorID)
	list, _ := args.Get(0).([]models.Appointment)
	return list, args.Error(1)
}

func (m *mockAppointments) ScheduleOn(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	args := m.Called(ctx, doctorID, date)
	list, _ := args.Get(0).([]models.Appointment)
	return list, args.Error(1)
}

func (m *mockAppointments) Booked(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	args := m.Called(ctx, doctorID, date)
	list, _ := args.Get(0).([]models.Appointment)
	return list, args.Error(1)
}

func (m *mockAppointments) Clients(ctx context.Context, doctorID string) ([]models.Patient, error) {
	args := m.Called(ctx, doctorID)
	list, _ := args.Get(0).([]models.Patient)
	return list, args.Error(1)
}

func (m *mockAppointments) Transition(ctx context.Context, a *models.Appointment, next models.AppointmentStatus) error {
	return m.Called(ctx, a, next).Error(0)
}

func (m *mockAppointments) AttachPayment(ctx context.Context, a *models.Appointment, invoiceNumber, paymentID string) error {
	return m.Called(ctx, a, invoiceNumber, paymentID).Error(0)
}

func (m *mockAppointments) ConfirmPayment(ctx context.Context, a *models.Appointment, txn *models.PaymentTransaction) error {
	return m.Called(ctx, a, txn).Error(0)
}

type mockStories struct{ mock.Mock }

func (m *mockStories) Create(ctx context.Context, s *models.Story) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStories) ByID(ctx context.Context, id string) (*models.Story, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Story)
	return s, args.Error(1)
}

func (m *mockStories) List(ctx context.Context) ([]models.Story, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Story)
	return list, args.Error(1)
}

func (m *mockStories) ByAuthor(ctx context.Context, patientID string) ([]models.Story, error) {
	args := m.Called(ctx, patientID)
	list, _ := args.Get(0).([]models.Story)
	return list, args.Error(1)
}

func (m *mockStories) Update(ctx context.Context, s *models.Story) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStories) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStories) AddComment(ctx context.Context, c *models.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStories) UpdateComment(ctx context.Context, c *models.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStories) DeleteComment(ctx context.Context, storyID, commentID string) error {
	return m.Called(ctx, storyID, commentID).Error(0)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreatePayment(ctx context.Context, req bkash.CreateRequest) (*bkash.CreateResponse, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*bkash.CreateResponse)
	return r, args.Error(1)
}

func (m *mockGateway) ExecutePayment(ctx context.Context, paymentID string) (*bkash.ExecuteResponse, error) {
	args := m.Called(ctx, paymentID)
	r, _ := args.Get(0).(*bkash.ExecuteResponse)
	return r, args.Error(1)
}

func (m *mockGateway) QueryPayment(ctx context.Context, paymentID string) (*bkash.ExecuteResponse, error) {
	args := m.Called(ctx, paymentID)
	r, _ := args.Get(0).(*bkash.ExecuteResponse)
	return r, args.Error(1)
}

type mockLocker struct{ mock.Mock }

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockLocker) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) PaymentConfirmed(ctx context.Context, r notify.Receipt) error {
	return m.Called(ctx, r).Error(0)
}

package services

import (
	"context"
	"sync"

	"telehealth-server/internal/models"
	"telehealth-server/internal/store"

	"github.com/google/uuid"
)

// memAppointments keeps appointments in memory with the same conditional
// semantics as the GORM store: a unique slot key, guarded state changes and
// a unique ledger row per payment.
type memAppointments struct {
	mu     sync.Mutex
	byID   map[string]*models.Appointment
	ledger map[string]models.PaymentTransaction
}

func newMemAppointments() *memAppointments {
	return &memAppointments{
		byID:   map[string]*models.Appointment{},
		ledger: map[string]models.PaymentTransaction{},
	}
}

func (m *memAppointments) find(match func(a *models.Appointment) bool) (*models.Appointment, error) {
	for _, a := range m.byID {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memAppointments) SlotTaken(_ context.Context, doctorID, date, timeSlot string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.find(func(a *models.Appointment) bool {
		return a.DoctorID == doctorID && a.Date == date && a.TimeSlot == timeSlot && a.Status != models.StatusCancelled
	})
	return err == nil, nil
}

func (m *memAppointments) Create(_ context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.HoldSlot()
	for _, other := range m.byID {
		if other.SlotKey != nil && *other.SlotKey == *a.SlotKey {
			return store.ErrSlotTaken
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAppointments) ByID(_ context.Context, id string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(a *models.Appointment) bool { return a.ID == id })
}

func (m *memAppointments) ByPaymentID(_ context.Context, paymentID string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(a *models.Appointment) bool { return a.PaymentID != nil && *a.PaymentID == paymentID })
}

func (m *memAppointments) ForSlot(_ context.Context, patientID, doctorID, date, timeSlot string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(a *models.Appointment) bool {
		return a.PatientID == patientID && a.DoctorID == doctorID && a.Date == date &&
			a.TimeSlot == timeSlot && a.Status != models.StatusCancelled
	})
}

func (m *memAppointments) list(match func(a *models.Appointment) bool) []models.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.byID {
		if match(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (m *memAppointments) ForPatient(_ context.Context, patientID string) ([]models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool { return a.PatientID == patientID }), nil
}

func (m *memAppointments) ForDoctor(_ context.Context, doctorID string) ([]models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (m *memAppointments) ScheduleOn(_ context.Context, doctorID, date string) ([]models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool {
		return a.DoctorID == doctorID && a.Date == date && a.Status != models.StatusCancelled
	}), nil
}

func (m *memAppointments) Booked(_ context.Context, doctorID, date string) ([]models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool {
		return a.DoctorID == doctorID && (date == "" || a.Date == date) && a.Status != models.StatusCancelled
	}), nil
}

func (m *memAppointments) Clients(context.Context, string) ([]models.Patient, error) {
	return nil, nil
}

func (m *memAppointments) Transition(_ context.Context, a *models.Appointment, next models.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[a.ID]
	if !ok || stored.Status != a.Status {
		return store.ErrStateChanged
	}
	stored.Status = next
	if next == models.StatusCancelled {
		stored.SlotKey = nil
	}
	a.Status, a.SlotKey = stored.Status, stored.SlotKey
	return nil
}

func (m *memAppointments) AttachPayment(_ context.Context, a *models.Appointment, invoiceNumber, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[a.ID]
	if !ok || !stored.AwaitingPayment() {
		return store.ErrStateChanged
	}
	stored.InvoiceNumber = &invoiceNumber
	stored.PaymentID = &paymentID
	a.InvoiceNumber, a.PaymentID = stored.InvoiceNumber, stored.PaymentID
	return nil
}

func (m *memAppointments) ConfirmPayment(_ context.Context, a *models.Appointment, txn *models.PaymentTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[a.ID]
	if !ok || !stored.AwaitingPayment() {
		return store.ErrStateChanged
	}
	if _, dup := m.ledger[txn.PaymentID]; dup {
		return store.ErrStateChanged
	}
	txn.AppointmentID = a.ID
	m.ledger[txn.PaymentID] = *txn
	stored.Status = models.StatusConfirmed
	stored.Payment = models.PaymentPaid
	stored.TrxID = txn.TrxID
	a.Status, a.Payment, a.TrxID = stored.Status, stored.Payment, stored.TrxID
	return nil
}

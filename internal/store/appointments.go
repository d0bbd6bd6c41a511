package store

import (
	"context"
	"errors"
	"fmt"

	"telehealth-server/internal/models"

	"gorm.io/gorm"
)

// Appointments stores appointments and the payment ledger.
type Appointments struct {
	db *gorm.DB
}

func NewAppointments(db *gorm.DB) *Appointments {
	return &Appointments{db: db}
}

func (s *Appointments) live(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Appointment{}).Where("status <> ?", models.StatusCancelled)
}

// SlotTaken reports whether a non-cancelled appointment holds the slot.
func (s *Appointments) SlotTaken(ctx context.Context, doctorID, date, timeSlot string) (bool, error) {
	var count int64
	err := s.live(ctx).
		Where("doctor_id = ? AND appointment_date = ? AND time_slot = ?", doctorID, date, timeSlot).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return count > 0, nil
}

// Create inserts a. When two bookings race for one slot the unique slot key
// rejects the loser with ErrSlotTaken.
func (s *Appointments) Create(ctx context.Context, a *models.Appointment) error {
	if a.Status != models.StatusCancelled {
		a.HoldSlot()
	}
	if err := s.db.WithContext(ctx).Omit("Doctor", "Patient").Create(a).Error; err != nil {
		if IsDuplicateKey(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (s *Appointments) ByID(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// ByPaymentID finds the appointment a gateway payment was created for.
func (s *Appointments) ByPaymentID(ctx context.Context, paymentID string) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// ForSlot finds the patient's live appointment on a doctor's slot.
func (s *Appointments) ForSlot(ctx context.Context, patientID, doctorID, date, timeSlot string) (*models.Appointment, error) {
	var a models.Appointment
	err := s.live(ctx).
		Where("patient_id = ? AND doctor_id = ? AND appointment_date = ? AND time_slot = ?", patientID, doctorID, date, timeSlot).
		First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// ForPatient lists a patient's appointments with their doctors, newest first.
func (s *Appointments) ForPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	var list []models.Appointment
	err := s.db.WithContext(ctx).Preload("Doctor").
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return list, nil
}

// ForDoctor lists a doctor's appointments with their patients, newest first.
func (s *Appointments) ForDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	var list []models.Appointment
	err := s.db.WithContext(ctx).Preload("Patient").
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return list, nil
}

// ScheduleOn lists a doctor's live appointments on date in slot order.
func (s *Appointments) ScheduleOn(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	var list []models.Appointment
	err := s.live(ctx).Preload("Patient").
		Where("doctor_id = ? AND appointment_date = ?", doctorID, date).
		Order("time_slot ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return list, nil
}

// Booked lists a doctor's live appointments, optionally on one date.
func (s *Appointments) Booked(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	q := s.live(ctx).Where("doctor_id = ?", doctorID)
	if date != "" {
		q = q.Where("appointment_date = ?", date)
	}
	var list []models.Appointment
	if err := q.Order("appointment_date ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	return list, nil
}

// Clients returns the distinct patients who booked the doctor.
func (s *Appointments) Clients(ctx context.Context, doctorID string) ([]models.Patient, error) {
	sub := s.db.Model(&models.Appointment{}).Select("patient_id").Where("doctor_id = ?", doctorID)
	var patients []models.Patient
	if err := s.db.WithContext(ctx).Where("id IN (?)", sub).Order("name ASC").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return patients, nil
}

// Transition moves a from its current status to next, provided nobody else
// changed it first. Cancelling releases the slot.
func (s *Appointments) Transition(ctx context.Context, a *models.Appointment, next models.AppointmentStatus) error {
	updates := map[string]interface{}{"status": next}
	if next == models.StatusCancelled {
		updates["slot_key"] = nil
	}
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", a.ID, a.Status).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update appointment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStateChanged
	}
	a.Status = next
	if next == models.StatusCancelled {
		a.SlotKey = nil
	}
	return nil
}

// AttachPayment records the correlation keys of a created gateway payment on
// an appointment that is still awaiting payment.
func (s *Appointments) AttachPayment(ctx context.Context, a *models.Appointment, invoiceNumber, paymentID string) error {
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ? AND payment = ?", a.ID, models.StatusPending, models.PaymentPending).
		Updates(map[string]interface{}{"invoice_number": invoiceNumber, "payment_id": paymentID})
	if res.Error != nil {
		return fmt.Errorf("failed to attach payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStateChanged
	}
	a.InvoiceNumber = &invoiceNumber
	a.PaymentID = &paymentID
	return nil
}

// ConfirmPayment marks the appointment confirmed and paid and writes the
// ledger row in one transaction. A second confirmation of the same payment
// is ErrStateChanged and leaves both tables untouched.
func (s *Appointments) ConfirmPayment(ctx context.Context, a *models.Appointment, txn *models.PaymentTransaction) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND status = ? AND payment = ?", a.ID, models.StatusPending, models.PaymentPending).
			Updates(map[string]interface{}{
				"status":  models.StatusConfirmed,
				"payment": models.PaymentPaid,
				"trx_id":  txn.TrxID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateChanged
		}

		txn.AppointmentID = a.ID
		if err := tx.Create(txn).Error; err != nil {
			if IsDuplicateKey(err) {
				return ErrStateChanged
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStateChanged) {
			return err
		}
		return fmt.Errorf("failed to confirm payment: %w", err)
	}

	a.Status = models.StatusConfirmed
	a.Payment = models.PaymentPaid
	a.TrxID = txn.TrxID
	return nil
}

// Transaction returns the ledger row for a gateway payment id.
func (s *Appointments) Transaction(ctx context.Context, paymentID string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	if err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

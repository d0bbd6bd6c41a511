package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telehealth-server/internal/logger"
	"telehealth-server/internal/metrics"
	"telehealth-server/internal/models"
	"telehealth-server/internal/store"
	"telehealth-server/internal/utils"
)

// BookingService books, lists and moves appointments through their states.
type BookingService struct {
	accounts     AccountStore
	appointments AppointmentStore
	defaultFee   float64
	slots        []string
	log          *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewBookingService(accounts AccountStore, appointments AppointmentStore, defaultFee float64, log *logger.Logger, m *metrics.Metrics) *BookingService {
	return &BookingService{
		accounts:     accounts,
		appointments: appointments,
		defaultFee:   defaultFee,
		slots:        DefaultTimeSlots,
		log:          log,
		metrics:      m,
		now:          time.Now,
	}
}

func (s *BookingService) doctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	d, err := s.accounts.DoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.NewNotFoundError("Doctor not found")
		}
		return nil, err
	}
	return d, nil
}

// Book reserves a doctor's slot for the patient. The appointment starts
// pending and unpaid with the doctor's current fee.
func (s *BookingService) Book(ctx context.Context, patientID, doctorID, date, timeSlot string) (*models.Appointment, error) {
	a, err := s.book(ctx, patientID, doctorID, date, timeSlot)
	switch {
	case err == nil:
		s.metrics.RecordBooking("created")
	case utils.IsKind(err, utils.KindConflict):
		s.metrics.RecordBooking("conflict")
	case utils.IsKind(err, utils.KindValidation), utils.IsKind(err, utils.KindNotFound):
		s.metrics.RecordBooking("invalid")
	default:
		s.metrics.RecordBooking("error")
	}
	return a, err
}

func (s *BookingService) book(ctx context.Context, patientID, doctorID, rawDate, rawSlot string) (*models.Appointment, error) {
	doctorID = strings.TrimSpace(doctorID)
	if patientID == "" || doctorID == "" || strings.TrimSpace(rawDate) == "" || strings.TrimSpace(rawSlot) == "" {
		return nil, utils.NewValidationError("doctorId, date and timeSlot are required")
	}
	date, err := models.NormalizeDate(rawDate)
	if err != nil {
		return nil, utils.NewValidationError("Invalid date: use YYYY-MM-DD")
	}
	timeSlot, err := models.NormalizeTimeSlot(rawSlot)
	if err != nil {
		return nil, utils.NewValidationError("Invalid time slot: use hh:mm am|pm")
	}

	doctor, err := s.doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	taken, err := s.appointments.SlotTaken(ctx, doctorID, date, timeSlot)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, utils.NewConflictError("This time slot is already booked")
	}

	fee := doctor.Fees
	if fee <= 0 {
		fee = s.defaultFee
	}
	a := &models.Appointment{
		DoctorID:  doctorID,
		PatientID: patientID,
		Date:      date,
		TimeSlot:  timeSlot,
		Fee:       fee,
		Status:    models.StatusPending,
		Payment:   models.PaymentPending,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return nil, utils.NewConflictError("This time slot is already booked")
		}
		return nil, err
	}

	s.log.Audit(patientID, "book", "appointment", true, map[string]interface{}{
		"appointment_id": a.ID,
		"doctor_id":      doctorID,
		"date":           date,
		"time_slot":      timeSlot,
	})
	return a, nil
}

// AvailableSlots returns the doctor's free slots on date.
func (s *BookingService) AvailableSlots(ctx context.Context, doctorID, rawDate string) ([]string, error) {
	date, err := models.NormalizeDate(rawDate)
	if err != nil {
		return nil, utils.NewValidationError("Invalid date: use YYYY-MM-DD")
	}
	if _, err := s.doctor(ctx, doctorID); err != nil {
		return nil, err
	}

	booked, err := s.appointments.Booked(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, a := range booked {
		taken[a.TimeSlot] = true
	}

	free := make([]string, 0, len(s.slots))
	for _, slot := range s.slots {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}

// BookedByDoctor lists the occupied slots of a doctor without saying who
// booked them. rawDate may be empty for every date.
func (s *BookingService) BookedByDoctor(ctx context.Context, doctorID, rawDate string) ([]models.BookedSlot, error) {
	date := ""
	if strings.TrimSpace(rawDate) != "" {
		var err error
		if date, err = models.NormalizeDate(rawDate); err != nil {
			return nil, utils.NewValidationError("Invalid date: use YYYY-MM-DD")
		}
	}

	booked, err := s.appointments.Booked(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	slots := make([]models.BookedSlot, 0, len(booked))
	for i := range booked {
		slots = append(slots, booked[i].Booked())
	}
	return slots, nil
}

// ForPatient lists the patient's appointments with doctor summaries.
func (s *BookingService) ForPatient(ctx context.Context, patientID string) ([]models.AppointmentView, error) {
	list, err := s.appointments.ForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	views := make([]models.AppointmentView, 0, len(list))
	for _, a := range list {
		v := models.AppointmentView{Appointment: a}
		if a.Doctor != nil {
			summary := a.Doctor.Summary()
			v.Doctor = &summary
		}
		views = append(views, v)
	}
	return views, nil
}

// ForDoctor lists the doctor's appointments with patient summaries.
func (s *BookingService) ForDoctor(ctx context.Context, doctorID string) ([]models.AppointmentView, error) {
	list, err := s.appointments.ForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return patientViews(list), nil
}

// TodaySchedule lists the doctor's live appointments for the current day.
func (s *BookingService) TodaySchedule(ctx context.Context, doctorID string) ([]models.AppointmentView, error) {
	list, err := s.appointments.ScheduleOn(ctx, doctorID, s.now().Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	return patientViews(list), nil
}

func patientViews(list []models.Appointment) []models.AppointmentView {
	views := make([]models.AppointmentView, 0, len(list))
	for _, a := range list {
		v := models.AppointmentView{Appointment: a}
		if a.Patient != nil {
			summary := a.Patient.Summary()
			v.Patient = &summary
		}
		views = append(views, v)
	}
	return views
}

// Clients lists the distinct patients who booked the doctor.
func (s *BookingService) Clients(ctx context.Context, doctorID string) ([]models.PatientSummary, error) {
	patients, err := s.appointments.Clients(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	out := make([]models.PatientSummary, 0, len(patients))
	for i := range patients {
		out = append(out, patients[i].Summary())
	}
	return out, nil
}

// UpdateStatus lets a party of the appointment cancel or complete it.
func (s *BookingService) UpdateStatus(ctx context.Context, actor models.Account, appointmentID, status string) (*models.Appointment, error) {
	next := models.AppointmentStatus(strings.ToLower(strings.TrimSpace(status)))
	switch next {
	case models.StatusPending, models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled:
	default:
		return nil, utils.NewValidationError("Status must be one of pending, confirmed, completed, cancelled")
	}

	a, err := s.appointments.ByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.NewNotFoundError("Appointment not found")
		}
		return nil, err
	}

	role := actor.AccountRole()
	if (role == models.RoleDoctor && a.DoctorID != actor.AccountID()) ||
		(role == models.RolePatient && a.PatientID != actor.AccountID()) {
		s.log.Security("appointment_access_denied", actor.AccountID(), map[string]interface{}{"appointment_id": a.ID})
		return nil, utils.NewForbiddenError("You are not part of this appointment")
	}
	if !a.CanTransition(role, next) {
		return nil, utils.NewConflictError(fmt.Sprintf("Cannot change appointment from %s to %s", a.Status, next))
	}

	prev := a.Status
	if err := s.appointments.Transition(ctx, a, next); err != nil {
		if errors.Is(err, store.ErrStateChanged) {
			return nil, utils.NewConflictError("Appointment was changed by someone else, reload and try again")
		}
		return nil, err
	}

	s.log.Audit(actor.AccountID(), "update_status", "appointment", true, map[string]interface{}{
		"appointment_id": a.ID,
		"from":           prev,
		"to":             next,
	})
	return a, nil
}

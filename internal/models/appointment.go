package models

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// PaymentStatus is the payment flag carried on an appointment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// DateLayout is the normalized appointment date format.
const DateLayout = "2006-01-02"

// Appointment is a booking of one doctor time slot by one patient.
//
// SlotKey is non-nil while the appointment holds its slot; the unique index
// on it is what keeps two live bookings off the same slot.
type Appointment struct {
	BaseModel
	DoctorID      string            `gorm:"size:36;index;not null" json:"doctorId"`
	PatientID     string            `gorm:"size:36;index;not null" json:"patientId"`
	Date          string            `gorm:"column:appointment_date;size:10;index;not null" json:"date"`
	TimeSlot      string            `gorm:"size:20;not null" json:"timeSlot"`
	Fee           float64           `gorm:"not null" json:"fee"`
	Status        AppointmentStatus `gorm:"size:20;default:'pending';index" json:"status"`
	Payment       PaymentStatus     `gorm:"size:20;default:'pending'" json:"payment"`
	SlotKey       *string           `gorm:"size:120;uniqueIndex" json:"-"`
	InvoiceNumber *string           `gorm:"size:191;uniqueIndex" json:"invoiceNumber,omitempty"`
	PaymentID     *string           `gorm:"size:100;uniqueIndex" json:"paymentId,omitempty"`
	TrxID         string            `gorm:"size:100" json:"trxId,omitempty"`

	Doctor  *Doctor  `gorm:"foreignKey:DoctorID" json:"-"`
	Patient *Patient `gorm:"foreignKey:PatientID" json:"-"`
}

// AppointmentView is an appointment with the other party's summary attached.
type AppointmentView struct {
	Appointment
	Doctor  *DoctorSummary  `json:"doctor,omitempty"`
	Patient *PatientSummary `json:"patient,omitempty"`
}

// BookedSlot is the public, anonymous view of an occupied slot.
type BookedSlot struct {
	DoctorID string            `json:"doctorId"`
	Date     string            `json:"date"`
	TimeSlot string            `json:"timeSlot"`
	Status   AppointmentStatus `json:"status"`
}

// MakeSlotKey builds the unique key for a doctor's slot on a date.
func MakeSlotKey(doctorID, date, timeSlot string) string {
	return doctorID + "|" + date + "|" + timeSlot
}

// HoldSlot marks the appointment as occupying its slot.
func (a *Appointment) HoldSlot() {
	key := MakeSlotKey(a.DoctorID, a.Date, a.TimeSlot)
	a.SlotKey = &key
}

// Booked returns the anonymous slot view.
func (a *Appointment) Booked() BookedSlot {
	return BookedSlot{DoctorID: a.DoctorID, Date: a.Date, TimeSlot: a.TimeSlot, Status: a.Status}
}

// IsPaid reports whether the gateway confirmed payment.
func (a *Appointment) IsPaid() bool {
	return a.Payment == PaymentPaid
}

// AwaitingPayment reports whether a payment can still be started.
func (a *Appointment) AwaitingPayment() bool {
	return a.Status == StatusPending && a.Payment == PaymentPending
}

// Involves reports whether the account is the doctor or patient of a.
func (a *Appointment) Involves(accountID string) bool {
	return accountID == a.DoctorID || accountID == a.PatientID
}

// CanTransition reports whether role may move the appointment from its
// current status to next.
func (a *Appointment) CanTransition(role Role, next AppointmentStatus) bool {
	switch role {
	case RoleDoctor:
		switch a.Status {
		case StatusPending:
			return next == StatusCancelled
		case StatusConfirmed:
			return next == StatusCompleted || next == StatusCancelled
		}
	case RolePatient:
		return a.Status == StatusPending && next == StatusCancelled
	}
	return false
}

var dateLayouts = []string{DateLayout, "1/2/2006", "01/02/2006", "January 2, 2006"}

// NormalizeDate accepts ISO dates and the US-style dates browsers produce
// and returns the ISO form.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", raw)
}

var slotLayouts = []string{"03:04 pm", "3:04 pm", "03:04pm", "3:04pm", "15:04"}

// NormalizeTimeSlot returns the slot label as "hh:mm am|pm".
func NormalizeTimeSlot(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", fmt.Errorf("time slot is required")
	}
	for _, layout := range slotLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("03:04 pm"), nil
		}
	}
	return "", fmt.Errorf("invalid time slot %q", raw)
}

package services

import (
	"context"
	"testing"
	"time"

	"telehealth-server/internal/logger"
	"telehealth-server/internal/models"
	"telehealth-server/internal/store"
	"telehealth-server/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newBookingService(accounts *mockAccounts, appointments *mockAppointments) *BookingService {
	return NewBookingService(accounts, appointments, 500, logger.Discard(), nil)
}

func doctor(id string, fee float64) *models.Doctor {
	return &models.Doctor{BaseModel: models.BaseModel{ID: id}, FullName: "Dr. " + id, Fees: fee, Role: models.RoleDoctor}
}

func patient(id string) *models.Patient {
	return &models.Patient{BaseModel: models.BaseModel{ID: id}, Name: "Patient " + id, Email: id + "@example.com", Role: models.RolePatient}
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	accounts, appointments := new(mockAccounts), new(mockAppointments)
	svc := newBookingService(accounts, appointments)
	ctx := context.Background()

	accounts.On("DoctorByID", ctx, "doc-1").Return(doctor("doc-1", 0), nil)
	appointments.On("SlotTaken", ctx, "doc-1", "2024-05-01", "10:00 am").Return(false, nil)
	appointments.On("Create", ctx, mock.AnythingOfType("*models.Appointment")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Appointment).ID = "appt-1" }).
		Return(nil)

	a, err := svc.Book(ctx, "pat-1", "doc-1", "2024-05-01", "10:00 AM")
	require.NoError(t, err)

	assert.Equal(t, "appt-1", a.ID)
	assert.Equal(t, "2024-05-01", a.Date)
	assert.Equal(t, "10:00 am", a.TimeSlot)
	assert.Equal(t, models.StatusPending, a.Status)
	assert.Equal(t, models.PaymentPending, a.Payment)
	assert.Equal(t, 500.0, a.Fee, "falls back to the default fee")
	appointments.AssertExpectations(t)
}

func TestBookUsesDoctorFee(t *testing.T) {
	accounts, appointments := new(mockAccounts), new(mockAppointments)
	svc := newBookingService(accounts, appointments)
	ctx := context.Background()

	accounts.On("DoctorByID", ctx, "doc-1").Return(doctor("doc-1", 800), nil)
	appointments.On("SlotTaken", ctx, "doc-1", "2024-05-01", "05:00 pm").Return(false, nil)
	appointments.On("Create", ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)

	a, err := svc.Book(ctx, "pat-1", "doc-1", "5/1/2024", "5:00 pm")
	require.NoError(t, err)
	assert.Equal(t, 800.0, a.Fee)
	assert.Equal(t, "2024-05-01", a.Date)
	assert.Equal(t, "05:00 pm", a.TimeSlot)
}

func TestBookRejectsTakenSlot(t *testing.T) {
	accounts, appointments := new(mockAccounts), new(mockAppointments)
	svc := newBookingService(accounts, appointments)
	ctx := context.Background()

	accounts.On("DoctorByID", ctx, "doc-1").Return(doctor("doc-1", 0), nil)
	appointments.On("SlotTaken", ctx, "doc-1", "2024-05-01", "10:00 am").Return(true, nil)

	_, err := svc.Book(ctx, "pat-1", "doc-1", "2024-05-01", "10:00 am")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	appointments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookLosesInsertRace(t *testing.T) {
	accounts, appointments := new(mockAccounts), new(mockAppointments)
	svc := newBookingService(accounts, appointments)
	ctx := context.Background()

	accounts.On("DoctorByID", ctx, "doc-1").Return(doctor("doc-1", 0), nil)
	appointments.On("SlotTaken", ctx, "doc-1", "2024-05-01", "10:00 am").Return(false, nil)
	appointments.On("Create", ctx, mock.Anything).Return(store.ErrSlotTaken)

	_, err := svc.Book(ctx, "pat-1", "doc-1", "2024-05-01", "10:00 am")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestBookValidation(t *testing.T) {
	tests := []struct {
		name     string
		doctorID string
		date     string
		slot     string
	}{
		{"missing doctor", "", "2024-05-01", "10:00 am"},
		{"missing date", "doc-1", "", "10:00 am"},
		{"missing slot", "doc-1", "2024-05-01", " "},
		{"bad date", "doc-1", "tomorrow", "10:00 am"},
		{"bad slot", "doc-1", "2024-05-01", "noonish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newBookingService(new(mockAccounts), new(mockAppointments))
			_, err := svc.Book(context.Background(), "pat-1", tt.doctorID, tt.date, tt.slot)
			assert.True(t, utils.IsKind(err, utils.KindValidation), "got %v", err)
		})
	}
}

func TestBookUnknownDoctor(t *testing.T) {
	accounts, appointments := new(mockAccounts), new(mockAppointments)
	svc := newBookingService(accounts, appointments)
	ctx := context.Background()

	accounts.On("DoctorByID", ctx, "ghost").Return(nil, store.ErrNotFound)

	_, err := svc.Book(ctx, "pat-1", "ghost", "2024-05-01", "10:00 am")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestAvailableSlots(t *testing.T) {
	accounts, appointments := new(mockAccounts), new(mockAppointments)
	svc := newBookingService(accounts, appointments)
	ctx := context.Background()

	accounts.On("DoctorByID", ctx, "doc-1").Return(doctor("doc-1", 0), nil)
	appointments.On("Booked", ctx, "doc-1", "2024-05-01").Return([]models.Appointment{
		{TimeSlot: "06:00 pm"},
		{TimeSlot: "08:30 pm"},
	}, nil)

	free, err := svc.AvailableSlots(ctx, "doc-1", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"05:00 pm", "06:30 pm", "07:00 pm", "07:30 pm", "08:00 pm"}, free)
}

func TestBookedByDoctorHidesPatients(t *testing.T) {
	appointments := new(mockAppointments)
	svc := newBookingService(new(mockAccounts), appointments)
	ctx := context.Background()

	appointments.On("Booked", ctx, "doc-1", "").Return([]models.Appointment{
		{DoctorID: "doc-1", PatientID: "pat-9", Date: "2024-05-01", TimeSlot: "05:00 pm", Status: models.StatusConfirmed},
	}, nil)

	slots, err := svc.BookedByDoctor(ctx, "doc-1", "")
	require.NoError(t, err)
	assert.Equal(t, []models.BookedSlot{
		{DoctorID: "doc-1", Date: "2024-05-01", TimeSlot: "05:00 pm", Status: models.StatusConfirmed},
	}, slots)
}

func TestForPatientAttachesDoctorSummary(t *testing.T) {
	appointments := new(mockAppointments)
	svc := newBookingService(new(mockAccounts), appointments)
	ctx := context.Background()

	appointments.On("ForPatient", ctx, "pat-1").Return([]models.Appointment{
		{BaseModel: models.BaseModel{ID: "appt-1"}, DoctorID: "doc-1", Doctor: doctor("doc-1", 0)},
		{BaseModel: models.BaseModel{ID: "appt-2"}, DoctorID: "doc-2"},
	}, nil)

	views, err := svc.ForPatient(ctx, "pat-1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Doctor)
	assert.Equal(t, "Dr. doc-1", views[0].Doctor.FullName)
	assert.Nil(t, views[1].Doctor)
}

func TestTodayScheduleUsesCurrentDate(t *testing.T) {
	appointments := new(mockAppointments)
	svc := newBookingService(new(mockAccounts), appointments)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	appointments.On("ScheduleOn", ctx, "doc-1", "2024-05-01").Return([]models.Appointment{
		{BaseModel: models.BaseModel{ID: "appt-1"}, Patient: patient("pat-1")},
	}, nil)

	views, err := svc.TodaySchedule(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Patient pat-1", views[0].Patient.Name)
}

func TestClients(t *testing.T) {
	appointments := new(mockAppointments)
	svc := newBookingService(new(mockAccounts), appointments)
	ctx := context.Background()

	appointments.On("Clients", ctx, "doc-1").Return([]models.Patient{*patient("pat-1"), *patient("pat-2")}, nil)

	clients, err := svc.Clients(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []models.PatientSummary{
		{ID: "pat-1", Name: "Patient pat-1", Email: "pat-1@example.com"},
		{ID: "pat-2", Name: "Patient pat-2", Email: "pat-2@example.com"},
	}, clients)
}

func pendingAppointment() *models.Appointment {
	a := &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"},
		DoctorID:  "doc-1",
		PatientID: "pat-1",
		Date:      "2024-05-01",
		TimeSlot:  "10:00 am",
		Fee:       500,
		Status:    models.StatusPending,
		Payment:   models.PaymentPending,
	}
	a.HoldSlot()
	return a
}

func TestUpdateStatusPatientCancels(t *testing.T) {
	appointments := new(mockAppointments)
	svc := newBookingService(new(mockAccounts), appointments)
	ctx := context.Background()

	appt := pendingAppointment()
	appointments.On("ByID", ctx, "appt-1").Return(appt, nil)
	appointments.On("Transition", ctx, appt, models.StatusCancelled).Return(nil)

	_, err := svc.UpdateStatus(ctx, patient("pat-1"), "appt-1", "Cancelled")
	require.NoError(t, err)
	appointments.AssertExpectations(t)
}

func TestUpdateStatusRules(t *testing.T) {
	confirmed := func() *models.Appointment {
		a := pendingAppointment()
		a.Status = models.StatusConfirmed
		a.Payment = models.PaymentPaid
		return a
	}

	tests := []struct {
		name  string
		actor models.Account
		appt  *models.Appointment
		next  string
		kind  utils.ErrorKind
	}{
		{"stranger patient", patient("pat-2"), pendingAppointment(), "cancelled", utils.KindForbidden},
		{"stranger doctor", doctor("doc-2", 0), pendingAppointment(), "cancelled", utils.KindForbidden},
		{"patient completes", patient("pat-1"), confirmed(), "completed", utils.KindConflict},
		{"patient cancels confirmed", patient("pat-1"), confirmed(), "cancelled", utils.KindConflict},
		{"doctor completes pending", doctor("doc-1", 0), pendingAppointment(), "completed", utils.KindConflict},
		{"unknown status", doctor("doc-1", 0), pendingAppointment(), "archived", utils.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appointments := new(mockAppointments)
			svc := newBookingService(new(mockAccounts), appointments)
			appointments.On("ByID", mock.Anything, "appt-1").Return(tt.appt, nil)

			_, err := svc.UpdateStatus(context.Background(), tt.actor, "appt-1", tt.next)
			assert.True(t, utils.IsKind(err, tt.kind), "got %v", err)
			appointments.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateStatusDoctorCompletes(t *testing.T) {
	appointments := new(mockAppointments)
	svc := newBookingService(new(mockAccounts), appointments)
	ctx := context.Background()

	appt := pendingAppointment()
	appt.Status = models.StatusConfirmed
	appointments.On("ByID", ctx, "appt-1").Return(appt, nil)
	appointments.On("Transition", ctx, appt, models.StatusCompleted).Return(nil)

	_, err := svc.UpdateStatus(ctx, doctor("doc-1", 0), "appt-1", "completed")
	require.NoError(t, err)
}

func TestUpdateStatusLostRace(t *testing.T) {
	appointments := new(mockAppointments)
	svc := newBookingService(new(mockAccounts), appointments)
	ctx := context.Background()

	appt := pendingAppointment()
	appointments.On("ByID", ctx, "appt-1").Return(appt, nil)
	appointments.On("Transition", ctx, appt, models.StatusCancelled).Return(store.ErrStateChanged)

	_, err := svc.UpdateStatus(ctx, doctor("doc-1", 0), "appt-1", "cancelled")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestUpdateStatusMissingAppointment(t *testing.T) {
	appointments := new(mockAppointments)
	svc := newBookingService(new(mockAccounts), appointments)

	appointments.On("ByID", mock.Anything, "nope").Return(nil, store.ErrNotFound)

	_, err := svc.UpdateStatus(context.Background(), patient("pat-1"), "nope", "cancelled")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

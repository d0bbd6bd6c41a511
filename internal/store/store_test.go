package store

import (
	"context"
	"errors"
	"testing"

	"telehealth-server/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func duplicateEntry() error {
	return &mysqldriver.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry"}
}

func pendingAppointment() *models.Appointment {
	return &models.Appointment{
		BaseModel: models.BaseModel{ID: "apt-1"},
		DoctorID:  "doc-1",
		PatientID: "pat-1",
		Date:      "2024-05-01",
		TimeSlot:  "10:00 am",
		Fee:       500,
		Status:    models.StatusPending,
		Payment:   models.PaymentPending,
	}
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKey(duplicateEntry()))
	assert.False(t, IsDuplicateKey(&mysqldriver.MySQLError{Number: 1045}))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
}

func TestAppointments_SlotTaken(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `appointments` WHERE status <> \\?.*doctor_id = \\? AND appointment_date = \\? AND time_slot = \\?").
		WithArgs("cancelled", "doc-1", "2024-05-01", "10:00 am").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	taken, err := repo.SlotTaken(context.Background(), "doc-1", "2024-05-01", "10:00 am")
	require.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointments_Create(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	mock.ExpectExec("INSERT INTO `appointments`").WillReturnResult(sqlmock.NewResult(1, 1))

	a := pendingAppointment()
	require.NoError(t, repo.Create(context.Background(), a))
	require.NotNil(t, a.SlotKey)
	assert.Equal(t, "doc-1|2024-05-01|10:00 am", *a.SlotKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointments_CreateRaceLoserGetsSlotTaken(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	mock.ExpectExec("INSERT INTO `appointments`").WillReturnError(duplicateEntry())

	err := repo.Create(context.Background(), pendingAppointment())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointments_ByIDNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	mock.ExpectQuery("SELECT \\* FROM `appointments` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointments_TransitionCancelReleasesSlot(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	a := pendingAppointment()
	a.HoldSlot()

	mock.ExpectExec("UPDATE `appointments` SET .*`slot_key`=.*WHERE id = \\? AND status = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Transition(context.Background(), a, models.StatusCancelled))
	assert.Equal(t, models.StatusCancelled, a.Status)
	assert.Nil(t, a.SlotKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointments_TransitionLostRace(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	a := pendingAppointment()
	mock.ExpectExec("UPDATE `appointments`").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Transition(context.Background(), a, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrStateChanged)
	assert.Equal(t, models.StatusPending, a.Status)
}

func TestAppointments_ConfirmPayment(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `appointments` SET .* WHERE id = \\? AND status = \\? AND payment = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `payment_transactions`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	a := pendingAppointment()
	txn := &models.PaymentTransaction{PaymentID: "pay-1", InvoiceNumber: "Inv-x", TrxID: "trx-1", Amount: 500}
	require.NoError(t, repo.ConfirmPayment(context.Background(), a, txn))

	assert.Equal(t, models.StatusConfirmed, a.Status)
	assert.Equal(t, models.PaymentPaid, a.Payment)
	assert.Equal(t, "trx-1", a.TrxID)
	assert.Equal(t, "apt-1", txn.AppointmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointments_ConfirmPaymentTwiceIsNoop(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `appointments`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	a := pendingAppointment()
	err := repo.ConfirmPayment(context.Background(), a, &models.PaymentTransaction{PaymentID: "pay-1"})
	assert.ErrorIs(t, err, ErrStateChanged)
	assert.Equal(t, models.PaymentPending, a.Payment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointments_ConfirmPaymentDuplicateLedgerRow(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `appointments`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `payment_transactions`").WillReturnError(duplicateEntry())
	mock.ExpectRollback()

	err := repo.ConfirmPayment(context.Background(), pendingAppointment(), &models.PaymentTransaction{PaymentID: "pay-1"})
	assert.ErrorIs(t, err, ErrStateChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointments_AttachPayment(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointments(db)

	mock.ExpectExec("UPDATE `appointments` SET .*`invoice_number`=.*`payment_id`=").
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := pendingAppointment()
	require.NoError(t, repo.AttachPayment(context.Background(), a, "Inv-1", "pay-1"))
	assert.Equal(t, "Inv-1", *a.InvoiceNumber)
	assert.Equal(t, "pay-1", *a.PaymentID)
}

func TestAccounts_CreatePatientDuplicateEmail(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAccounts(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `patients` WHERE email = \\?").
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := repo.CreatePatient(context.Background(), &models.Patient{Name: "Jane", Email: " Jane@Example.com "})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccounts_CreatePatientRaceOnUniqueIndex(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAccounts(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `patients`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `patients`").WillReturnError(duplicateEntry())

	err := repo.CreatePatient(context.Background(), &models.Patient{Name: "Jane", Email: "jane@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAccounts_CreateDoctorDefaults(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAccounts(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `doctors`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `doctors`").WillReturnResult(sqlmock.NewResult(1, 1))

	d := &models.Doctor{FullName: "Dr. Rahman", Email: "Rahman@Clinic.bd"}
	require.NoError(t, repo.CreateDoctor(context.Background(), d))
	assert.Equal(t, "rahman@clinic.bd", d.Email)
	assert.Equal(t, models.RoleDoctor, d.Role)
	assert.Equal(t, models.DoctorStatusDeactivate, d.Status)
	assert.NotEmpty(t, d.ID)
}

func TestAccounts_FindAccountByRole(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAccounts(db)

	mock.ExpectQuery("SELECT \\* FROM `doctors` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow("doc-1", "Dr. Rahman", "rahman@clinic.bd", "doctor"))

	acct, err := repo.FindAccount(context.Background(), models.RoleDoctor, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", acct.AccountID())
	assert.Equal(t, models.RoleDoctor, acct.AccountRole())

	_, err = repo.FindAccount(context.Background(), "admin", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccounts_RevokeUnknownToken(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAccounts(db)

	mock.ExpectExec("UPDATE `refresh_tokens` SET `is_revoked`=").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RevokeRefreshToken(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStories_DeleteRemovesComments(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewStories(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `comments` WHERE story_id = \\?").WithArgs("story-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `stories` WHERE id = \\?").WithArgs("story-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "story-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStories_ByIDNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewStories(db)

	mock.ExpectQuery("SELECT \\* FROM `stories` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"telehealth-server/internal/bkash"
	"telehealth-server/internal/logger"
	"telehealth-server/internal/metrics"
	"telehealth-server/internal/models"
	"telehealth-server/internal/notify"
	"telehealth-server/internal/store"
	"telehealth-server/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	callbackLockTTL = time.Minute

	confirmAttempts   = 3
	confirmRetryDelay = 200 * time.Millisecond

	// CallbackSuccess is the status bKash sends when the payer authorized
	// the payment.
	CallbackSuccess = "success"
)

// PaymentInput is a request to start paying for an appointment. The
// appointment is named by ID or by its doctor, date and slot.
type PaymentInput struct {
	AppointmentID string
	DoctorID      string
	Date          string
	TimeSlot      string
	Amount        *float64
}

// PaymentSession is a started checkout the payer must be redirected to.
type PaymentSession struct {
	BkashURL      string  `json:"bkashURL"`
	PaymentID     string  `json:"paymentID"`
	InvoiceNumber string  `json:"invoiceNumber"`
	AppointmentID string  `json:"appointmentId"`
	Amount        float64 `json:"amount"`
}

// PaymentService starts bKash checkouts and applies their callbacks.
type PaymentService struct {
	accounts     AccountStore
	appointments AppointmentStore
	gateway      Gateway
	locks        Locker
	notifier     notify.Notifier
	clientURL    string
	log          *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
	retryDelay   time.Duration

	// receipts tracks notification sends still running after their
	// callback returned.
	receipts sync.WaitGroup
}

func NewPaymentService(
	accounts AccountStore,
	appointments AppointmentStore,
	gateway Gateway,
	locks Locker,
	notifier notify.Notifier,
	clientURL string,
	log *logger.Logger,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		accounts:     accounts,
		appointments: appointments,
		gateway:      gateway,
		locks:        locks,
		notifier:     notifier,
		clientURL:    strings.TrimRight(clientURL, "/"),
		log:          log,
		metrics:      m,
		now:          time.Now,
		retryDelay:   confirmRetryDelay,
	}
}

// Wait blocks until receipts started by earlier callbacks have been sent.
func (s *PaymentService) Wait() {
	s.receipts.Wait()
}

// InvoiceNumber builds the merchant invoice for an appointment. It is stored
// on the appointment and compared with what the gateway echoes back.
func InvoiceNumber(a *models.Appointment) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
	return fmt.Sprintf("Inv-%s-%s-%s-%s-%s", short, a.DoctorID, a.PatientID, a.TimeSlot, a.Date)
}

func (s *PaymentService) resolve(ctx context.Context, patientID string, in PaymentInput) (*models.Appointment, error) {
	var (
		a   *models.Appointment
		err error
	)
	if id := strings.TrimSpace(in.AppointmentID); id != "" {
		a, err = s.appointments.ByID(ctx, id)
	} else {
		if strings.TrimSpace(in.DoctorID) == "" || strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.TimeSlot) == "" {
			return nil, utils.NewValidationError("appointmentId or doctorId, date and timeSlot are required")
		}
		date, derr := models.NormalizeDate(in.Date)
		if derr != nil {
			return nil, utils.NewValidationError("Invalid date: use YYYY-MM-DD")
		}
		slot, serr := models.NormalizeTimeSlot(in.TimeSlot)
		if serr != nil {
			return nil, utils.NewValidationError("Invalid time slot: use hh:mm am|pm")
		}
		a, err = s.appointments.ForSlot(ctx, patientID, strings.TrimSpace(in.DoctorID), date, slot)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.NewNotFoundError("Appointment not found")
		}
		return nil, err
	}
	if a.PatientID != patientID {
		s.log.Security("payment_foreign_appointment", patientID, map[string]interface{}{"appointment_id": a.ID})
		return nil, utils.NewNotFoundError("Appointment not found")
	}
	return a, nil
}

// Create starts a bKash checkout for the patient's pending appointment.
func (s *PaymentService) Create(ctx context.Context, patientID string, in PaymentInput) (*PaymentSession, error) {
	session, err := s.create(ctx, patientID, in)
	if err != nil {
		s.metrics.RecordPayment("create", "failed")
		return nil, err
	}
	s.metrics.RecordPayment("create", "ok")
	return session, nil
}

func (s *PaymentService) create(ctx context.Context, patientID string, in PaymentInput) (*PaymentSession, error) {
	a, err := s.resolve(ctx, patientID, in)
	if err != nil {
		return nil, err
	}
	if !a.AwaitingPayment() {
		return nil, utils.NewConflictError("Appointment is not awaiting payment")
	}
	if in.Amount != nil && math.Abs(*in.Amount-a.Fee) > 0.009 {
		return nil, utils.NewValidationError(fmt.Sprintf("Amount must be %.2f", a.Fee))
	}

	invoice := InvoiceNumber(a)
	resp, err := s.gateway.CreatePayment(ctx, bkash.CreateRequest{
		Amount:         a.Fee,
		PayerReference: patientID,
		InvoiceNumber:  invoice,
	})
	if err != nil {
		s.log.WithComponent("payments").WithError(err).WithField("appointment_id", a.ID).Error("bKash create payment failed")
		return nil, utils.NewGatewayError("Payment gateway error, please try again", err)
	}

	if err := s.appointments.AttachPayment(ctx, a, invoice, resp.PaymentID); err != nil {
		if errors.Is(err, store.ErrStateChanged) {
			return nil, utils.NewConflictError("Appointment is not awaiting payment")
		}
		return nil, err
	}

	s.log.Audit(patientID, "create_payment", "appointment", true, map[string]interface{}{
		"appointment_id": a.ID,
		"payment_id":     resp.PaymentID,
		"invoice_number": invoice,
	})
	return &PaymentSession{
		BkashURL:      resp.BkashURL,
		PaymentID:     resp.PaymentID,
		InvoiceNumber: invoice,
		AppointmentID: a.ID,
		Amount:        a.Fee,
	}, nil
}

func (s *PaymentService) successURL() string {
	return s.clientURL + "/app/bkash-payment/success"
}

func (s *PaymentService) errorURL(message string) string {
	return s.clientURL + "/app/bkash-payment/error?message=" + url.QueryEscape(message)
}

// HandleCallback applies the gateway's redirect and returns where the
// payer's browser goes next. Replayed callbacks end on the success page
// without a second confirmation.
func (s *PaymentService) HandleCallback(ctx context.Context, paymentID, status string) string {
	target, outcome := s.handleCallback(ctx, strings.TrimSpace(paymentID), strings.ToLower(strings.TrimSpace(status)))
	s.metrics.RecordPayment("callback", outcome)
	return target
}

func (s *PaymentService) handleCallback(ctx context.Context, paymentID, status string) (string, string) {
	log := s.log.WithComponent("payments").WithFields(logrus.Fields{"payment_id": paymentID, "status": status})

	if status != CallbackSuccess {
		if status == "" {
			status = "failure"
		}
		log.Info("payment not completed by payer")
		return s.errorURL(status), status
	}
	if paymentID == "" {
		return s.errorURL("Missing payment id"), "invalid"
	}

	a, err := s.appointments.ByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("callback for unknown payment")
			return s.errorURL("Unknown payment"), "unknown"
		}
		log.WithError(err).Error("loading appointment for payment")
		return s.errorURL("Something went wrong"), "error"
	}
	if a.IsPaid() {
		return s.successURL(), "duplicate"
	}
	if a.Status != models.StatusPending {
		return s.errorURL("Appointment is no longer pending"), "stale"
	}

	lockKey := "bkash:callback:" + paymentID
	claimed, err := s.locks.Acquire(ctx, lockKey, callbackLockTTL)
	if err != nil {
		log.WithError(err).Error("claiming payment callback")
		return s.errorURL("Something went wrong"), "error"
	}
	if !claimed {
		return s.errorURL("Payment is already being processed"), "busy"
	}

	// Once claimed the payment is seen through even if the payer's browser
	// goes away: money may move at the gateway from here on.
	work := context.WithoutCancel(ctx)
	defer func() {
		if err := s.locks.Release(work, lockKey); err != nil {
			log.WithError(err).Warn("releasing payment callback claim")
		}
	}()

	exec, err := s.execute(work, paymentID, log)
	if err != nil {
		var gwErr *bkash.Error
		if errors.As(err, &gwErr) {
			log.WithField("code", gwErr.Code).Warn("bKash execute rejected")
			return s.errorURL(gwErr.Message), "rejected"
		}
		log.WithError(err).Error("bKash execute failed")
		return s.errorURL("Payment gateway error"), "error"
	}

	if a.InvoiceNumber == nil || exec.MerchantInvoiceNumber != *a.InvoiceNumber {
		s.log.Security("payment_invoice_mismatch", a.PatientID, map[string]interface{}{
			"payment_id":     paymentID,
			"appointment_id": a.ID,
			"echoed_invoice": exec.MerchantInvoiceNumber,
		})
		return s.errorURL("Payment does not match the appointment"), "mismatch"
	}

	txn := &models.PaymentTransaction{
		PaymentID:     paymentID,
		InvoiceNumber: exec.MerchantInvoiceNumber,
		TrxID:         exec.TrxID,
		Amount:        exec.AmountValue(),
		Status:        exec.TransactionStatus,
	}
	if err := s.confirm(work, a, txn, log); err != nil {
		if errors.Is(err, store.ErrStateChanged) {
			if fresh, ferr := s.appointments.ByID(work, a.ID); ferr == nil && fresh.IsPaid() {
				return s.successURL(), "duplicate"
			}
			return s.errorURL("Appointment is no longer pending"), "stale"
		}
		// Captured at bKash but not recorded here. A repeated callback
		// finds it through QueryPayment and records it then.
		log.WithError(err).WithFields(logrus.Fields{
			"appointment_id": a.ID,
			"trx_id":         txn.TrxID,
			"amount":         txn.Amount,
		}).Error("payment captured but not recorded")
		s.log.Audit(a.PatientID, "confirm_payment", "appointment", false, map[string]interface{}{
			"appointment_id": a.ID,
			"payment_id":     paymentID,
			"trx_id":         txn.TrxID,
		})
		return s.errorURL("Payment received but not yet recorded, please retry"), "unrecorded"
	}

	s.log.Audit(a.PatientID, "confirm_payment", "appointment", true, map[string]interface{}{
		"appointment_id": a.ID,
		"payment_id":     paymentID,
		"trx_id":         exec.TrxID,
	})

	s.receipts.Add(1)
	go func() {
		defer s.receipts.Done()
		s.sendReceipt(work, a, txn, log)
	}()
	return s.successURL(), "confirmed"
}

// execute runs the payment. When execute fails the payment may still have
// been captured, by this call or an earlier one, so its status is read
// back before giving up.
func (s *PaymentService) execute(ctx context.Context, paymentID string, log *logrus.Entry) (*bkash.ExecuteResponse, error) {
	exec, err := s.gateway.ExecutePayment(ctx, paymentID)
	if err == nil {
		return exec, nil
	}

	status, qerr := s.gateway.QueryPayment(ctx, paymentID)
	if qerr != nil {
		log.WithError(qerr).Warn("bKash query after failed execute")
		return nil, err
	}
	if !status.Completed() {
		return nil, err
	}
	log.WithError(err).Info("execute failed but payment is completed at bKash")
	return status, nil
}

// confirm records the payment, retrying errors other than a lost race.
func (s *PaymentService) confirm(ctx context.Context, a *models.Appointment, txn *models.PaymentTransaction, log *logrus.Entry) error {
	var err error
	for attempt := 1; attempt <= confirmAttempts; attempt++ {
		err = s.appointments.ConfirmPayment(ctx, a, txn)
		if err == nil || errors.Is(err, store.ErrStateChanged) {
			return err
		}
		log.WithError(err).WithField("attempt", attempt).Warn("confirming payment")
		if attempt < confirmAttempts {
			time.Sleep(time.Duration(attempt) * s.retryDelay)
		}
	}
	return err
}

func (s *PaymentService) sendReceipt(ctx context.Context, a *models.Appointment, txn *models.PaymentTransaction, log *logrus.Entry) {
	if s.notifier == nil {
		return
	}
	r := notify.Receipt{
		AppointmentID: a.ID,
		InvoiceNumber: txn.InvoiceNumber,
		TrxID:         txn.TrxID,
		Amount:        txn.Amount,
		Date:          a.Date,
		TimeSlot:      a.TimeSlot,
		PaidAt:        s.now(),
	}
	if p, err := s.accounts.PatientByID(ctx, a.PatientID); err == nil {
		r.PatientName = p.Name
		r.PatientEmail = p.Email
	}
	if d, err := s.accounts.DoctorByID(ctx, a.DoctorID); err == nil {
		r.DoctorName = d.FullName
		r.DoctorPhone = d.Phone
	}
	if err := s.notifier.PaymentConfirmed(ctx, r); err != nil {
		log.WithError(err).Warn("sending payment notifications")
	}
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"telehealth-server/internal/config"
	"telehealth-server/internal/logger"
	"telehealth-server/internal/media"
	"telehealth-server/internal/metrics"
	"telehealth-server/internal/models"
	"telehealth-server/internal/store"
	"telehealth-server/internal/utils"
)

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// DoctorRegistration is the multipart doctor sign-up form.
type DoctorRegistration struct {
	FullName        string
	Email           string
	Password        string
	PhoneNumber     string
	Specializations string
	Bio             string
	Address         string
	Education       string
	WorkExperience  string
	LicenseNumber   string
	AppointmentFee  string
	Certificate     *multipart.FileHeader
	ProfilePic      *multipart.FileHeader
}

type education struct {
	Degree     string      `json:"degree"`
	University string      `json:"university"`
	Year       interface{} `json:"year"`
}

// year accepts the graduation year as a JSON number or string.
func (e education) year() string {
	switch v := e.Year.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

// DoctorProfileUpdate lists the doctor fields a doctor may change. Nil
// fields are left alone.
type DoctorProfileUpdate struct {
	Bio             *string
	Phone           *string
	Address         *string
	Fees            *float64
	Specializations []string
	WorkExperience  *string
}

// AccountService registers, authenticates and updates patients and doctors.
type AccountService struct {
	accounts AccountStore
	media    media.Store
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAccountService(accounts AccountStore, mediaStore media.Store, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *AccountService {
	return &AccountService{
		accounts: accounts,
		media:    mediaStore,
		cfg:      cfg,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// RegisterPatient creates a patient and signs them in.
func (s *AccountService) RegisterPatient(ctx context.Context, name, email, password string) (*models.Patient, TokenPair, error) {
	p := &models.Patient{Name: strings.TrimSpace(name), Email: email}
	if err := p.SetPassword(password); err != nil {
		return nil, TokenPair{}, utils.NewInternalError("Failed to hash password", err)
	}

	if err := s.accounts.CreatePatient(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, TokenPair{}, utils.NewConflictError("A patient with this email already exists")
		}
		return nil, TokenPair{}, err
	}

	tokens, err := s.issueTokens(ctx, p)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.log.Audit(p.ID, "register", "patient", true, nil)
	return p, tokens, nil
}

// RegisterDoctor validates the form, stores both documents and creates the
// doctor. Uploads are removed again when the account cannot be created.
func (s *AccountService) RegisterDoctor(ctx context.Context, reg DoctorRegistration) (*models.Doctor, error) {
	required := []struct{ name, value string }{
		{"fullName", reg.FullName},
		{"email", reg.Email},
		{"password", reg.Password},
		{"phoneNumber", reg.PhoneNumber},
		{"specializations", reg.Specializations},
		{"bio", reg.Bio},
		{"address", reg.Address},
		{"education", reg.Education},
		{"workExperience", reg.WorkExperience},
		{"licenseNumber", reg.LicenseNumber},
		{"appointmentFee", reg.AppointmentFee},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, utils.NewValidationError("Field is required: " + f.name)
		}
	}
	if reg.Certificate == nil || reg.ProfilePic == nil {
		return nil, utils.NewValidationError("Both certificate and profile picture are required")
	}
	if err := utils.Validate(struct {
		Email string `validate:"email"`
	}{reg.Email}); err != nil {
		return nil, utils.NewValidationError("Please enter a valid email")
	}
	if len(reg.Password) < 6 {
		return nil, utils.NewValidationError("Password must be at least 6 characters long")
	}

	var edu education
	if err := json.Unmarshal([]byte(reg.Education), &edu); err != nil {
		return nil, utils.NewValidationError("Invalid education data format.")
	}
	fee, err := strconv.ParseFloat(strings.TrimSpace(reg.AppointmentFee), 64)
	if err != nil || fee < 0 {
		return nil, utils.NewValidationError("Appointment fee must be a non-negative number")
	}

	if _, err := s.accounts.DoctorByEmail(ctx, reg.Email); err == nil {
		return nil, utils.NewConflictError("A doctor with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	certificate, err := s.upload(ctx, "certificates", reg.Certificate)
	if err != nil {
		return nil, err
	}
	profilePic, err := s.upload(ctx, "profile-pics", reg.ProfilePic)
	if err != nil {
		s.discard(ctx, certificate)
		return nil, err
	}

	d := &models.Doctor{
		FullName:         strings.TrimSpace(reg.FullName),
		Email:            reg.Email,
		Phone:            strings.TrimSpace(reg.PhoneNumber),
		Bio:              reg.Bio,
		Address:          reg.Address,
		Degree:           edu.Degree,
		MedicalCollege:   edu.University,
		YearOfCompletion: edu.year(),
		WorkExperience:   reg.WorkExperience,
		License:          strings.TrimSpace(reg.LicenseNumber),
		Fees:             fee,
		Certificate:      certificate.URL,
		ProfilePic:       profilePic.URL,
	}
	d.SetSpecializations(strings.Split(reg.Specializations, ","))
	if err := d.SetPassword(reg.Password); err != nil {
		s.discard(ctx, certificate, profilePic)
		return nil, utils.NewInternalError("Failed to hash password", err)
	}

	if err := s.accounts.CreateDoctor(ctx, d); err != nil {
		s.discard(ctx, certificate, profilePic)
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, utils.NewConflictError("A doctor with this email already exists")
		}
		return nil, err
	}

	s.log.Audit(d.ID, "register", "doctor", true, nil)
	return d, nil
}

func (s *AccountService) upload(ctx context.Context, folder string, fh *multipart.FileHeader) (media.Object, error) {
	obj, err := media.SaveUpload(ctx, s.media, folder, fh)
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		return obj, utils.NewValidationError(fmt.Sprintf("%s must be a JPEG, PNG, WebP or PDF file", fh.Filename))
	case errors.Is(err, media.ErrTooLarge):
		return obj, utils.NewValidationError(fmt.Sprintf("%s is larger than 5 MB", fh.Filename))
	case err != nil:
		return obj, utils.NewInternalError("Failed to store upload", err)
	}
	return obj, nil
}

func (s *AccountService) discard(ctx context.Context, objects ...media.Object) {
	for _, obj := range objects {
		if err := s.media.Delete(ctx, obj.Name); err != nil {
			s.log.WithError(err).WithField("object", obj.Name).Warn("Failed to remove orphaned upload")
		}
	}
}

// Login checks credentials against the table for role.
func (s *AccountService) Login(ctx context.Context, role models.Role, email, password string) (models.Account, TokenPair, error) {
	var (
		account models.Account
		err     error
	)
	switch role {
	case models.RolePatient:
		var p *models.Patient
		if p, err = s.accounts.PatientByEmail(ctx, email); err == nil {
			account = p
		}
	case models.RoleDoctor:
		var d *models.Doctor
		if d, err = s.accounts.DoctorByEmail(ctx, email); err == nil {
			account = d
		}
	default:
		return nil, TokenPair{}, utils.NewValidationError("Unknown account type")
	}

	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, TokenPair{}, err
	}
	if account == nil || !account.CheckPassword(password) {
		s.metrics.RecordAuth(string(role), "failure")
		s.log.Security("login_failed", "", map[string]interface{}{"email": email, "role": role})
		return nil, TokenPair{}, utils.NewUnauthorizedError("Invalid email or password")
	}

	tokens, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.metrics.RecordAuth(string(role), "success")
	return account, tokens, nil
}

func (s *AccountService) issueTokens(ctx context.Context, account models.Account) (TokenPair, error) {
	access, refresh, err := utils.GenerateTokens(account, s.cfg)
	if err != nil {
		return TokenPair{}, utils.NewInternalError("Failed to generate tokens", err)
	}

	rt := &models.RefreshToken{
		AccountID:   account.AccountID(),
		AccountRole: account.AccountRole(),
		Token:       refresh,
		ExpiresAt:   s.now().Add(time.Duration(s.cfg.JWTRefreshExpirationHours) * time.Hour),
	}
	if err := s.accounts.SaveRefreshToken(ctx, rt); err != nil {
		return TokenPair{}, utils.NewInternalError("Failed to save refresh token", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old one.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := utils.ValidateToken(refreshToken, s.cfg.JWTRefreshSecret)
	if err != nil {
		return TokenPair{}, utils.NewUnauthorizedError("Invalid refresh token")
	}

	stored, err := s.accounts.RefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, utils.NewUnauthorizedError("Invalid refresh token")
		}
		return TokenPair{}, err
	}
	if !stored.Usable(s.now()) || stored.AccountID != claims.UserID {
		return TokenPair{}, utils.NewUnauthorizedError("Refresh token is expired or revoked")
	}

	account, err := s.accounts.FindAccount(ctx, stored.AccountRole, stored.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, utils.NewUnauthorizedError("Account no longer exists")
		}
		return TokenPair{}, err
	}

	if err := s.accounts.RevokeRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, utils.NewUnauthorizedError("Refresh token is expired or revoked")
		}
		return TokenPair{}, err
	}
	return s.issueTokens(ctx, account)
}

// Logout revokes a refresh token belonging to accountID. Unknown tokens
// are ignored.
func (s *AccountService) Logout(ctx context.Context, accountID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	stored, err := s.accounts.RefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if stored.AccountID != accountID {
		s.log.Security("foreign_refresh_token", accountID, map[string]interface{}{"owner": stored.AccountID})
		return utils.NewForbiddenError("Refresh token belongs to another account")
	}
	if err := s.accounts.RevokeRefreshToken(ctx, refreshToken); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// Authenticate resolves an access token to the live account it names. The
// claimed role only picks the table; the stored role must agree with it.
func (s *AccountService) Authenticate(ctx context.Context, accessToken string) (models.Account, error) {
	claims, err := utils.ValidateToken(accessToken, s.cfg.JWTSecret)
	if err != nil {
		return nil, utils.NewUnauthorizedError("Invalid or expired token")
	}

	account, err := s.accounts.FindAccount(ctx, claims.Role, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.NewUnauthorizedError("User not found")
		}
		return nil, err
	}
	if account.AccountRole() != claims.Role {
		s.log.Security("role_mismatch", claims.UserID, map[string]interface{}{
			"claimed": claims.Role,
			"stored":  account.AccountRole(),
		})
		return nil, utils.NewUnauthorizedError("Invalid or expired token")
	}
	return account, nil
}

func (s *AccountService) Patient(ctx context.Context, id string) (*models.Patient, error) {
	p, err := s.accounts.PatientByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.NewNotFoundError("Patient not found")
		}
		return nil, err
	}
	return p, nil
}

// UpdatePatientProfile changes the patient's display name.
func (s *AccountService) UpdatePatientProfile(ctx context.Context, id, name string) (*models.Patient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.NewValidationError("Name is required")
	}
	p, err := s.Patient(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = name
	if err := s.accounts.UpdatePatient(ctx, p, "name"); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *AccountService) Doctor(ctx context.Context, id string) (*models.Doctor, error) {
	d, err := s.accounts.DoctorByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.NewNotFoundError("Doctor not found")
		}
		return nil, err
	}
	return d, nil
}

// UpdateDoctorProfile applies the non-nil fields of u.
func (s *AccountService) UpdateDoctorProfile(ctx context.Context, id string, u DoctorProfileUpdate) (*models.Doctor, error) {
	d, err := s.Doctor(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if u.Bio != nil {
		d.Bio = *u.Bio
		columns = append(columns, "bio")
	}
	if u.Phone != nil {
		d.Phone = strings.TrimSpace(*u.Phone)
		columns = append(columns, "phone")
	}
	if u.Address != nil {
		d.Address = *u.Address
		columns = append(columns, "address")
	}
	if u.Fees != nil {
		if *u.Fees < 0 {
			return nil, utils.NewValidationError("Fees must not be negative")
		}
		d.Fees = *u.Fees
		columns = append(columns, "fees")
	}
	if u.Specializations != nil {
		d.SetSpecializations(u.Specializations)
		columns = append(columns, "specializations")
	}
	if u.WorkExperience != nil {
		d.WorkExperience = *u.WorkExperience
		columns = append(columns, "work_experience")
	}
	if len(columns) == 0 {
		return nil, utils.NewValidationError("Nothing to update")
	}

	if err := s.accounts.UpdateDoctor(ctx, d, columns...); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDoctors returns the directory, optionally narrowed to one
// specialization.
func (s *AccountService) ListDoctors(ctx context.Context, specialization string) ([]models.DoctorProfile, error) {
	doctors, err := s.accounts.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]models.DoctorProfile, 0, len(doctors))
	for i := range doctors {
		if specialization != "" && !doctors[i].HasSpecialization(specialization) {
			continue
		}
		profiles = append(profiles, doctors[i].Profile())
	}
	return profiles, nil
}

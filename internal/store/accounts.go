package store

import (
	"context"
	"fmt"
	"strings"

	"telehealth-server/internal/models"

	"gorm.io/gorm"
)

// Accounts stores patients, doctors and their refresh tokens.
type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreatePatient inserts p. A taken email is ErrDuplicateEmail whether the
// pre-check or the unique index catches it.
func (s *Accounts) CreatePatient(ctx context.Context, p *models.Patient) error {
	p.Email = normalizeEmail(p.Email)
	p.Role = models.RolePatient

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Patient{}).Where("email = ?", p.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check patient email: %w", err)
	}
	if count > 0 {
		return ErrDuplicateEmail
	}

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if IsDuplicateKey(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// CreateDoctor inserts d with the same duplicate handling as CreatePatient.
func (s *Accounts) CreateDoctor(ctx context.Context, d *models.Doctor) error {
	d.Email = normalizeEmail(d.Email)
	d.Role = models.RoleDoctor
	if d.Status == "" {
		d.Status = models.DoctorStatusDeactivate
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Doctor{}).Where("email = ?", d.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check doctor email: %w", err)
	}
	if count > 0 {
		return ErrDuplicateEmail
	}

	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		if IsDuplicateKey(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (s *Accounts) PatientByID(ctx context.Context, id string) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Accounts) PatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Accounts) DoctorByID(ctx context.Context, id string) (*models.Doctor, error) {
	var d models.Doctor
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (s *Accounts) DoctorByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	var d models.Doctor
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// FindAccount loads the account with id from the table that stores role.
func (s *Accounts) FindAccount(ctx context.Context, role models.Role, id string) (models.Account, error) {
	switch role {
	case models.RolePatient:
		p, err := s.PatientByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return p, nil
	case models.RoleDoctor:
		d, err := s.DoctorByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, ErrNotFound
	}
}

// ListDoctors returns every doctor, newest first.
func (s *Accounts) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	var doctors []models.Doctor
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

// UpdatePatient writes only the named columns of p.
func (s *Accounts) UpdatePatient(ctx context.Context, p *models.Patient, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(p).Select(columns).Updates(p)
	if res.Error != nil {
		return fmt.Errorf("failed to update patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDoctor writes only the named columns of d.
func (s *Accounts) UpdateDoctor(ctx context.Context, d *models.Doctor, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(d).Select(columns).Updates(d)
	if res.Error != nil {
		return fmt.Errorf("failed to update doctor: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Accounts) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *Accounts) RefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// RevokeRefreshToken marks token revoked. Revoking an unknown or already
// revoked token is ErrNotFound.
func (s *Accounts) RevokeRefreshToken(ctx context.Context, token string) error {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND is_revoked = ?", token, false).
		Update("is_revoked", true)
	if res.Error != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

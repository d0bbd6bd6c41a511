package models

import "time"

// Patient represents a patient account
type Patient struct {
	BaseModel
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Role     Role   `gorm:"size:20;default:'patient'" json:"role"`

	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"-"`
	Stories      []Story       `gorm:"foreignKey:UploadedBy" json:"-"`
}

// PatientSanitized is the patient data that is safe to send in API responses.
type PatientSanitized struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PatientSummary is what a doctor sees about a patient on an appointment.
type PatientSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SetPassword hashes a password and sets it on the patient
func (p *Patient) SetPassword(password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	p.Password = hashed
	return nil
}

// CheckPassword compares a password with the patient's hashed password
func (p *Patient) CheckPassword(password string) bool {
	return checkPassword(p.Password, password)
}

func (p *Patient) AccountID() string    { return p.ID }
func (p *Patient) AccountRole() Role    { return p.Role }
func (p *Patient) AccountEmail() string { return p.Email }

// Sanitize creates a PatientSanitized struct, excluding sensitive data.
func (p *Patient) Sanitize() PatientSanitized {
	return PatientSanitized{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Summary returns the patient fields shown on a doctor's appointment list.
func (p *Patient) Summary() PatientSummary {
	return PatientSummary{ID: p.ID, Name: p.Name, Email: p.Email}
}

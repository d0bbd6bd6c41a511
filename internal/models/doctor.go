package models

import (
	"strings"
	"time"
)

// DoctorStatus is the account status an administrator toggles.
type DoctorStatus string

const (
	DoctorStatusActive     DoctorStatus = "active"
	DoctorStatusDeactivate DoctorStatus = "deactivate"
)

// Doctor represents a doctor account and public profile
type Doctor struct {
	BaseModel
	FullName         string       `gorm:"size:150;not null" json:"fullName"`
	Email            string       `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password         string       `gorm:"size:255;not null" json:"-"`
	Phone            string       `gorm:"size:30" json:"phone"`
	Specializations  string       `gorm:"size:500" json:"-"` // comma separated, see SpecializationList
	Bio              string       `gorm:"type:text" json:"bio"`
	Address          string       `gorm:"size:255" json:"address"`
	Degree           string       `gorm:"size:150" json:"degree"`
	MedicalCollege   string       `gorm:"size:255" json:"medicalCollege"`
	YearOfCompletion string       `gorm:"size:10" json:"yearOfCompletion"`
	WorkExperience   string       `gorm:"size:255" json:"workExperience"`
	License          string       `gorm:"size:100" json:"license"`
	Fees             float64      `json:"fees"`
	Certificate      string       `gorm:"size:500" json:"certificate"`
	ProfilePic       string       `gorm:"size:500" json:"profilePic"`
	Status           DoctorStatus `gorm:"size:20;default:'deactivate'" json:"status"`
	Role             Role         `gorm:"size:20;default:'doctor'" json:"role"`

	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"-"`
}

// DoctorProfile is the public view of a doctor.
type DoctorProfile struct {
	ID               string       `json:"id"`
	FullName         string       `json:"fullName"`
	Email            string       `json:"email"`
	Phone            string       `json:"phone"`
	Specialization   []string     `json:"specialization"`
	Bio              string       `json:"bio"`
	Address          string       `json:"address"`
	Degree           string       `json:"degree"`
	MedicalCollege   string       `json:"medicalCollege"`
	YearOfCompletion string       `json:"yearOfCompletion"`
	WorkExperience   string       `json:"workExperience"`
	Fees             float64      `json:"fees"`
	ProfilePic       string       `json:"profilePic"`
	Status           DoctorStatus `json:"status"`
	Role             Role         `json:"role"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// DoctorSummary is what a patient sees about a doctor on an appointment.
type DoctorSummary struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic"`
}

// SetPassword hashes a password and sets it on the doctor
func (d *Doctor) SetPassword(password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	d.Password = hashed
	return nil
}

// CheckPassword compares a password with the doctor's hashed password
func (d *Doctor) CheckPassword(password string) bool {
	return checkPassword(d.Password, password)
}

func (d *Doctor) AccountID() string    { return d.ID }
func (d *Doctor) AccountRole() Role    { return d.Role }
func (d *Doctor) AccountEmail() string { return d.Email }

// SetSpecializations stores a trimmed, de-duplicated specialization list.
func (d *Doctor) SetSpecializations(list []string) {
	seen := make(map[string]bool, len(list))
	kept := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		kept = append(kept, s)
	}
	d.Specializations = strings.Join(kept, ",")
}

// SpecializationList splits the stored specializations.
func (d *Doctor) SpecializationList() []string {
	if d.Specializations == "" {
		return []string{}
	}
	return strings.Split(d.Specializations, ",")
}

// HasSpecialization matches case-insensitively.
func (d *Doctor) HasSpecialization(name string) bool {
	for _, s := range d.SpecializationList() {
		if strings.EqualFold(s, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// Profile returns the doctor's public profile.
func (d *Doctor) Profile() DoctorProfile {
	return DoctorProfile{
		ID:               d.ID,
		FullName:         d.FullName,
		Email:            d.Email,
		Phone:            d.Phone,
		Specialization:   d.SpecializationList(),
		Bio:              d.Bio,
		Address:          d.Address,
		Degree:           d.Degree,
		MedicalCollege:   d.MedicalCollege,
		YearOfCompletion: d.YearOfCompletion,
		WorkExperience:   d.WorkExperience,
		Fees:             d.Fees,
		ProfilePic:       d.ProfilePic,
		Status:           d.Status,
		Role:             d.Role,
		CreatedAt:        d.CreatedAt,
	}
}

// Summary returns the doctor fields shown on a patient's appointment list.
func (d *Doctor) Summary() DoctorSummary {
	return DoctorSummary{ID: d.ID, FullName: d.FullName, ProfilePic: d.ProfilePic}
}

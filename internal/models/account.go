package models

import "golang.org/x/crypto/bcrypt"

// Role enum
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is a role an account can hold.
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// Account is the part of a patient or doctor record the auth layer needs.
type Account interface {
	AccountID() string
	AccountRole() Role
	AccountEmail() string
	CheckPassword(password string) bool
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

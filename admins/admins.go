package admins

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Toggle returns the status an admin moves to when flipped from the admin table.
func (s Status) Toggle() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Profile is the signed-in admin as returned by /admin/me. It is replaced wholesale on
// every fetch.
type Profile struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	SuperAdmin bool   `json:"superAdmin"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// DisplayName falls back to the email when the admin has no name.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

type Admin struct {
	ID           string     `json:"_id"`
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	SuperAdmin   bool       `json:"superAdmin,omitempty"`
	Status       Status     `json:"status"`
	PasswordHash string     `json:"-"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Profile projects an admin account onto the /admin/me shape.
func (a *Admin) Profile() Profile {
	p := Profile{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		SuperAdmin: a.SuperAdmin,
	}
	if a.CreatedAt != nil {
		p.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	if a.UpdatedAt != nil {
		p.UpdatedAt = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return p
}

func (a *Admin) Active() bool {
	return a.Status == StatusActive
}

// NewAdmin is the body of POST /admin/signup.
type NewAdmin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username" validate:"required,min=2,max=64"`
}

type ListResponse struct {
	Admins []Admin `json:"admins"`
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

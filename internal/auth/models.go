package auth

import (
	"sort"
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Age below which a parent email must be supplied at signup.
const parentEmailAgeLimit = 14

type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Name              string     `json:"name"`
	Role              string     `json:"role"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	ParentEmail       string     `json:"parent_email,omitempty"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	ParentEmail string `json:"parent_email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// FieldErrors reports validation failures keyed by field name.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f + ": " + e[f])
	}
	return b.String()
}

func emailValid(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

func ageAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// validateRegistration applies the signup rules, including the conditional
// parent-email requirement for members under 14.
func validateRegistration(req RegisterRequest, now time.Time) (FieldErrors, *time.Time) {
	errs := FieldErrors{}
	if !emailValid(req.Email) {
		errs["email"] = "a valid email is required"
	}
	if len(req.Password) < 6 {
		errs["password"] = "password must be at least 6 characters"
	}
	if req.Name == "" {
		errs["name"] = "name is required"
	}

	var dob *time.Time
	if req.DateOfBirth == "" {
		errs["date_of_birth"] = "date of birth is required"
	} else {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			errs["date_of_birth"] = "date of birth must be YYYY-MM-DD"
		} else {
			dob = &parsed
			if ageAt(parsed, now) < parentEmailAgeLimit && !emailValid(req.ParentEmail) {
				errs["parent_email"] = "a valid parent email is required for members under 14"
			}
		}
	}

	if len(errs) == 0 {
		return nil, dob
	}
	return errs, dob
}

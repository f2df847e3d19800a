package domain

import "time"

// User models a registered member.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	PasswordSalt []byte    `json:"-"`
	Gender       string    `json:"gender"`
	KnownAs      string    `json:"known_as"`
	DateOfBirth  time.Time `json:"date_of_birth"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Introduction string    `json:"introduction,omitempty"`
	LookingFor   string    `json:"looking_for,omitempty"`
	Interests    string    `json:"interests,omitempty"`
	Created      time.Time `json:"created"`
	LastActive   time.Time `json:"last_active"`
	Photos       []Photo   `json:"photos"`
}

// Credential is the salted password derivative persisted for a user.
type Credential struct {
	Hash []byte
	Salt []byte
}

// MainPhotoURL returns the URL of the user's main photo, or "" when none is set.
func (u *User) MainPhotoURL() string {
	for _, p := range u.Photos {
		if p.IsMain {
			return p.URL
		}
	}
	return ""
}

// Age returns the user's age in whole years at the given instant.
func (u *User) Age(now time.Time) int {
	if u.DateOfBirth.IsZero() {
		return 0
	}
	dob := u.DateOfBirth.UTC()
	now = now.UTC()
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

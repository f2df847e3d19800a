package handler

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// birthDate accepts either a calendar date ("1995-03-03") or an RFC 3339
// timestamp.
type birthDate struct {
	time.Time
}

func (d *birthDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("dateOfBirth must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("dateOfBirth %q is not a date", s)
}

type registerRequest struct {
	Username    string    `json:"username" validate:"required,max=32"`
	Password    string    `json:"password" validate:"required,min=4,max=64"`
	Gender      string    `json:"gender" validate:"required"`
	KnownAs     string    `json:"knownAs" validate:"required"`
	DateOfBirth birthDate `json:"dateOfBirth"`
	City        string    `json:"city" validate:"required"`
	Country     string    `json:"country" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type photoResponse struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	DateAdded   time.Time `json:"dateAdded"`
	IsMain      bool      `json:"isMain"`
}

// userForList is the profile summary returned with a login.
type userForList struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Gender     string    `json:"gender"`
	Age        int       `json:"age"`
	KnownAs    string    `json:"knownAs"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"lastActive"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	PhotoURL   string    `json:"photoUrl"`
}

type userForDetailed struct {
	userForList
	Introduction string          `json:"introduction"`
	LookingFor   string          `json:"lookingFor"`
	Interests    string          `json:"interests"`
	Photos       []photoResponse `json:"photos"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userForList `json:"user"`
}

package model

import "time"

// LoginCode is a one-time code submitted by the messaging front-end for a phone number.
type LoginCode struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

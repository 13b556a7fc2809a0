package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account document. Emails are stored lowercased; uniqueness is
// enforced by a unique index on the email field.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	IsVerified   bool               `bson:"is_verified" json:"is_verified"`

	// OTP pairs are set and cleared together. An empty code with a zero
	// timestamp means no code is outstanding for that purpose. Expiries are
	// absolute timestamps so they survive restarts.
	VerifyOTP          string    `bson:"verify_otp" json:"-"`
	VerifyOTPExpiresAt time.Time `bson:"verify_otp_expires_at" json:"-"`
	ResetOTP           string    `bson:"reset_otp" json:"-"`
	ResetOTPExpiresAt  time.Time `bson:"reset_otp_expires_at" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

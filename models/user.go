package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Role distinguishes reporting citizens from the authorities that triage issues.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleAuthority Role = "authority"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password,omitempty" json:"-"`
	IsAdmin    bool               `bson:"isAdmin" json:"isAdmin"`
	Role       Role               `bson:"role" json:"role"`
	OTP        string             `bson:"otp,omitempty" json:"-"`
	OTPExpires *time.Time         `bson:"otpExpires,omitempty" json:"-"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the profile returned alongside a freshly minted token.
type PublicUser struct {
	ID      primitive.ObjectID `json:"_id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	IsAdmin bool               `json:"isAdmin"`
	Role    Role               `json:"role"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}

// SetOTP stores a hashed one-time code and its expiry.
func (u *User) SetOTP(hash string, expires time.Time) {
	u.OTP = hash
	u.OTPExpires = &expires
}

func (u *User) ClearOTP() {
	u.OTP = ""
	u.OTPExpires = nil
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, Role: u.Role}
}

package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// GenerateOTP returns a 6 digit code, the salted hash to persist, and the expiry.
func GenerateOTP(now time.Time, ttl time.Duration) (string, string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", time.Time{}, err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)

	return code, saltStr + ":" + hashOTP(saltStr, code), now.UTC().Add(ttl), nil
}

// VerifyOTP compares a submitted code against a stored "salt:hash" value.
func VerifyOTP(code, stored string) bool {
	saltStr, expected, ok := strings.Cut(stored, ":")
	if !ok || !isOTPCode(code) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hashOTP(saltStr, code)), []byte(expected)) == 1
}

func hashOTP(salt, code string) string {
	sum := sha256.Sum256([]byte(salt + ":" + code))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func isOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPTTL is how long a password-reset code stays valid.
const OTPTTL = 10 * time.Minute

// ResetWindow is how long after a successful OTP verification the
// reset-password call is accepted.
const ResetWindow = 10 * time.Minute

// GenerateOTP creates a secure 6-digit random code (100000 to 999999).
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("crypto rand failed: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingReference generates a human-shareable booking reference:
// "BK" + the current millisecond timestamp in uppercase base36 + six
// random base36 characters.  The timestamp part keeps references
// roughly sortable; the random tail makes collisions rare but not
// impossible, so callers retry once on a uniqueness violation.
func NewBookingReference() (string, error) {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	tail := make([]byte, 6)
	for i := range tail {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceAlphabet))))
		if err != nil {
			return "", fmt.Errorf("crypto rand failed: %w", err)
		}
		tail[i] = referenceAlphabet[n.Int64()]
	}
	return "BK" + ts + string(tail), nil
}

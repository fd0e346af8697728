package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/oklog/ulid/v2"
)

// NewID returns a time-sortable opaque identifier.
func NewID() string {
	return ulid.Make().String()
}

func SecureRandomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}

// GenerateNumericCode returns a code with exactly length digits and no
// leading zero, uniform over [10^(length-1), 10^length).
func GenerateNumericCode(length int) string {
	if length <= 0 {
		return ""
	}
	low := 1
	for i := 1; i < length; i++ {
		low *= 10
	}
	high := low * 10
	return strconv.Itoa(low + SecureRandomInt(high-low))
}

func GeneratePrivateAccessCode() string {
	return GenerateNumericCode(PrivateAccessCodeLength)
}

package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	employeeIDNumberLength      = 13
	employeeAccountNumberLength = 10
)

// generateDigits returns n random decimal digits with a non-zero lead.
func generateDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		max := int64(10)
		if i == 0 {
			max = 9
		}
		d, err := rand.Int(rand.Reader, big.NewInt(max))
		if err != nil {
			return "", fmt.Errorf("generateDigits: %w", err)
		}
		if i == 0 {
			d.Add(d, big.NewInt(1))
		}
		digits[i] = '0' + byte(d.Int64())
	}
	return string(digits), nil
}

package password

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12
	// MinPasswordLength applies to manager passwords
	MinPasswordLength = 8
)

// Cost is the bcrypt cost used by Hash. Tests lower it to bcrypt.MinCost.
var Cost = DefaultCost

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Hash hashes a PIN or password using bcrypt
func Hash(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), Cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a secret with a hash in constant time.
// An empty hash never matches.
func Verify(secret, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// ValidPIN reports whether pin is exactly four ASCII digits.
func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

// ValidatePassword checks if password meets requirements
func ValidatePassword(password string) bool {
	return len(password) >= MinPasswordLength
}

package utils

import "golang.org/x/crypto/bcrypt"

const MinPasswordLength = 6

func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

func ComparePassword(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}

// ValidatePasswordPair checks length and confirmation of a new password.
func ValidatePasswordPair(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return NewValidationError("password must be at least %d characters", MinPasswordLength)
	}
	if password != confirm {
		return NewValidationError("passwords do not match")
	}
	return nil
}

package shared

import (
	"fmt"

	"golang.org/x/text/secure/precis"
)

// NormalizeUsername canonicalizes a username with the PRECIS
// UsernameCaseMapped profile so lookups and uniqueness checks are
// case-insensitive ("Admin" and "admin" collide).
func NormalizeUsername(username string) (string, error) {
	normalized, err := precis.UsernameCaseMapped.String(username)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return normalized, nil
}

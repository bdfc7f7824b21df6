package password

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// tempAlphabet excludes visually ambiguous characters (0/O, 1/l/I, etc.)
// because temporary passwords are relayed out of band, often read aloud or
// retyped from paper.
const tempAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%&*+-=?"

// MinTemporaryLength is the floor for admin-issued temporary passwords.
const MinTemporaryLength = 12

// Temporary generates a random temporary password of the given length
// drawn from the unambiguous alphabet. Lengths below
// [MinTemporaryLength] are rejected.
func Temporary(length int) (string, error) {
	if length < MinTemporaryLength {
		return "", errors.New("temporary password length below minimum")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(tempAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(tempAlphabet[n.Int64()])
	}

	return b.String(), nil
}

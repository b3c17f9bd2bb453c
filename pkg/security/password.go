package security

import (
	"crypto/rand"
	"math/big"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Look-alike characters (0/O, 1/l/I) are left out on purpose
const (
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars  = "abcdefghijkmnopqrstuvwxyz"
	digitChars  = "23456789"
	symbolChars = "!@#$%&*?"

	TempPasswordLength = 14
)

// TempPassword returns a password of at least TempPasswordLength characters
// containing at least one character of every class.
func TempPassword(length int) (string, error) {
	if length < TempPasswordLength {
		length = TempPasswordLength
	}

	var b strings.Builder
	for _, pool := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		c, err := gonanoid.Generate(pool, 1)
		if err != nil {
			return "", err
		}
		b.WriteString(c)
	}

	rest, err := gonanoid.Generate(upperChars+lowerChars+digitChars+symbolChars, length-b.Len())
	if err != nil {
		return "", err
	}
	b.WriteString(rest)

	out := []byte(b.String())
	if err := shuffle(out); err != nil {
		return "", err
	}

	return string(out), nil
}

// Fisher-Yates with a crypto source
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}

		b[i], b[j.Int64()] = b[j.Int64()], b[i]
	}

	return nil
}

/*
Package randx generates cryptographically secure random Base62 strings.
They are used as collision guards in generated file names.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// SuffixLength is the length of a file name suffix.
	SuffixLength = 6
)

var base62Len = big.NewInt(int64(len(Base62Chars)))

// Base62 returns n random Base62 characters drawn from crypto/rand.
func Base62(n int) (string, error) {
	result := make([]byte, n)

	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, base62Len)
		if err != nil {
			return "", fmt.Errorf("failed to generate random base62 character: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// Suffix returns a SuffixLength Base62 string.
func Suffix() (string, error) {
	return Base62(SuffixLength)
}

// IsBase62 reports whether s is non-empty and made only of Base62 characters.
func IsBase62(s string) bool {
	if s == "" {
		return false
	}
	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}
	return true
}

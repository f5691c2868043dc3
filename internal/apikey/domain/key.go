package domain

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// KeyPrefix marks every issued secret.
	KeyPrefix = "smo-"

	keySecretLength = 48
	keyAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// maxUnbiasedByte is the largest multiple of the alphabet size that fits
// in a byte. Draws at or above it are redrawn so every symbol is equally
// likely.
const maxUnbiasedByte = 256 - 256%len(keyAlphabet)

// GenerateKey produces a new secret: the fixed prefix followed by 48
// alphanumeric characters drawn from crypto/rand.
func GenerateKey() (string, error) {
	var b strings.Builder
	b.Grow(len(KeyPrefix) + keySecretLength)
	b.WriteString(KeyPrefix)

	buf := make([]byte, keySecretLength)
	for written := 0; written < keySecretLength; {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate api key: %w", err)
		}
		for _, c := range buf {
			if int(c) >= maxUnbiasedByte {
				continue
			}
			b.WriteByte(keyAlphabet[int(c)%len(keyAlphabet)])
			written++
			if written == keySecretLength {
				break
			}
		}
	}
	return b.String(), nil
}

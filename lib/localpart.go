package lib

import (
	"crypto/rand"
	"math/big"
)

const localPartCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

const DefaultLocalPartLength = 10

// RandomLocalPart generates the local part of a new temporary address.
// The first character is always a letter so the address survives the most
// pedantic mail filters.
func RandomLocalPart(length int) string {
	if length < 1 {
		length = DefaultLocalPartLength
	}
	b := make([]byte, length)
	for i := range b {
		max := len(localPartCharset)
		if i == 0 {
			max = 26
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			b[i] = localPartCharset[i%26]
			continue
		}
		b[i] = localPartCharset[n.Int64()]
	}
	return string(b)
}

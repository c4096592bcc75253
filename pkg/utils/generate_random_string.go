package utils

import (
	"crypto/rand"
	"encoding/hex"
)

func GenerateRandomString(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "rndfallback"
	}

	s := hex.EncodeToString(bytes)
	if len(s) > n {
		s = s[:n]
	}
	return s
}

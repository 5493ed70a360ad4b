package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateUUID tạo UUID v4
func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateShortID tạo ID ngắn (8 ký tự)
func GenerateShortID() string {
	return GenerateUUID()[:8]
}

// Fingerprint SHA-256 (hex) của các phần ghép bằng ký tự NUL
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

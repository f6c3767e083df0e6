package repositories

import (
	"crypto/rand"
	"fmt"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 20
)

// newRecordID returns a 20-character alphanumeric identifier. Vehicle ids
// are embedded in QR payloads, which only accept 15-30 alphanumeric
// characters, so ids must stay in that shape to scan back correctly.
func newRecordID() (string, error) {
	// Largest byte value that maps onto the alphabet without bias
	limit := byte(len(idAlphabet) * (256 / len(idAlphabet)))

	id := make([]byte, idLength)
	buf := make([]byte, 1)
	for i := 0; i < idLength; {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate record id: %w", err)
		}
		if buf[0] >= limit {
			continue
		}
		id[i] = idAlphabet[int(buf[0])%len(idAlphabet)]
		i++
	}
	return string(id), nil
}

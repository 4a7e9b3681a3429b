package platform

import "crypto/rand"

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!#%+=?"
const minPasswordLength = 12

// NewPassword generates a random mailbox password of at least 12
// characters from a mixed alphabet with look-alike characters removed.
func NewPassword(length int) string {
	if length < minPasswordLength {
		length = minPasswordLength
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = passwordAlphabet[b[i]%byte(len(passwordAlphabet))]
	}
	return string(b)
}

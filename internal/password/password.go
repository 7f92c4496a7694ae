// Package password wraps bcrypt credential hashing. A fresh salt is
// generated per call and encoded into the digest; comparison happens in
// constant time inside bcrypt.
package password

import "golang.org/x/crypto/bcrypt"

const hashCost = 10

// Hash returns the bcrypt digest of the plaintext.
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext matches the stored digest. A
// malformed digest is a non-match, not an error.
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

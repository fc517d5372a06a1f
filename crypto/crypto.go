// Package crypto implements the passphrase-derived body cipher of
// spec.md §4.6/§6: the head bytes of an encoded message are never
// encrypted, but the body bytes may optionally be XORed with an AES-CTR
// keystream keyed by SHA-256(passphrase) and seeded with the head bytes
// as nonce. Grounded on the one pack example (kryptco-kr) that reaches
// for crypto/aes and crypto/cipher directly rather than a third-party
// crypto library; no example repo imports one, so the standard library
// is the grounded choice here.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"

	"github.com/dcclgo/dccl/errs"
)

// BodyCipher encrypts/decrypts message bodies with a key derived from a
// passphrase, using the message's head bytes as the CTR nonce so that two
// messages with different headers never reuse a keystream under the same
// key.
type BodyCipher struct {
	key [sha256.Size]byte
}

// NewBodyCipher derives a key from passphrase via SHA-256.
func NewBodyCipher(passphrase string) *BodyCipher {
	return &BodyCipher{key: sha256.Sum256([]byte(passphrase))}
}

// Transform returns plaintext XORed with the AES-CTR keystream for
// (key, nonce=head). Encryption and decryption are the same operation.
// nonce is truncated or zero-padded to aes.BlockSize internally.
func (c *BodyCipher) Transform(head, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, errs.WithField(errs.ErrInternal, "crypto: build aes cipher", "")
	}

	iv := make([]byte, aes.BlockSize)
	copy(iv, head) // shorter heads leave the remaining IV bytes zero

	out := make([]byte, len(data))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out, data)

	return out, nil
}

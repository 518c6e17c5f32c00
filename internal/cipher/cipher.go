// Package cipher encrypts credential secrets at rest with AES-256-GCM.
package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Prefix tags the ciphertext format version.
const Prefix = "v1."

var (
	ErrCipher     = errors.New("cipher error")
	ErrKeyMissing = fmt.Errorf("%w: key missing", ErrCipher)
	ErrMalformed  = fmt.Errorf("%w: malformed ciphertext", ErrCipher)
	ErrAuthFailed = fmt.Errorf("%w: message authentication failed", ErrCipher)
)

var encoding = base64.RawURLEncoding

// Cipher seals and opens single secrets. Associated data binds a ciphertext
// to its context (the owner id); opening with different associated data fails.
type Cipher struct {
	key *Key
}

func New(key *Key) (*Cipher, error) {
	if key == nil || key.enclave == nil {
		return nil, ErrKeyMissing
	}
	return &Cipher{key: key}, nil
}

func (c *Cipher) Encrypt(plaintext string, associatedData []byte) (string, error) {
	aead, release, err := c.aead()
	if err != nil {
		return "", err
	}
	defer release()

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", ErrCipher, err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), associatedData)
	return Prefix + encoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(ciphertext string, associatedData []byte) (string, error) {
	body, ok := strings.CutPrefix(ciphertext, Prefix)
	if !ok {
		return "", ErrMalformed
	}
	raw, err := encoding.DecodeString(body)
	if err != nil {
		return "", ErrMalformed
	}

	aead, release, err := c.aead()
	if err != nil {
		return "", err
	}
	defer release()

	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformed
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, associatedData)
	if err != nil {
		return "", ErrAuthFailed
	}
	return string(plaintext), nil
}

func (c *Cipher) aead() (stdcipher.AEAD, func(), error) {
	buf, err := c.key.open()
	if err != nil {
		return nil, nil, err
	}
	block, err := aes.NewCipher(buf.Bytes())
	if err != nil {
		buf.Destroy()
		return nil, nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	aead, err := stdcipher.NewGCM(block)
	if err != nil {
		buf.Destroy()
		return nil, nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	return aead, buf.Destroy, nil
}

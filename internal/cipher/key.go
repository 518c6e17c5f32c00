package cipher

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/hkdf"
)

const keyLength = 32

var keyInfo = []byte("passop:credential-secret:v1")

// Key is the server-held CipherKey. The derived bytes live in a memguard
// enclave and are only decrypted into locked memory for the duration of a
// single seal or open.
type Key struct {
	enclave *memguard.Enclave
}

// NewKey derives an AES-256 key from the configured secret with HKDF-SHA256.
func NewKey(secret string) (*Key, error) {
	if secret == "" {
		return nil, ErrKeyMissing
	}
	h := hkdf.New(sha256.New, []byte(secret), nil, keyInfo)
	k := make([]byte, keyLength)
	if _, err := io.ReadFull(h, k); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	// NewEnclave wipes k.
	return &Key{enclave: memguard.NewEnclave(k)}, nil
}

func (k *Key) open() (*memguard.LockedBuffer, error) {
	if k == nil || k.enclave == nil {
		return nil, ErrKeyMissing
	}
	buf, err := k.enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening key enclave: %v", ErrCipher, err)
	}
	return buf, nil
}

func (k *Key) String() string {
	return "cipher.Key[REDACTED]"
}

func (k *Key) GoString() string {
	return k.String()
}

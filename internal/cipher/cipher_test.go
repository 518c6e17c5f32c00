package cipher

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T, secret string) *Cipher {
	t.Helper()
	key, err := NewKey(secret)
	require.NoError(t, err)
	c, err := New(key)
	require.NoError(t, err)
	return c
}

func TestNewKey_Empty(t *testing.T) {
	_, err := NewKey("")
	assert.ErrorIs(t, err, ErrKeyMissing)
	assert.ErrorIs(t, err, ErrCipher)
}

func TestNew_NilKey(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrKeyMissing)
}

func TestKey_StringRedacted(t *testing.T) {
	key, err := NewKey("super-secret-key-material")
	require.NoError(t, err)

	assert.NotContains(t, key.String(), "super-secret")
	assert.NotContains(t, fmt.Sprintf("%v %+v %#v", key, key, key), "super-secret")
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t, "test-cipher-key-0123456789")
	aad := []byte("owner-1")

	testCases := []string{
		"p@ss",
		"",
		"a",
		"correct horse battery staple",
		"ünïcødé ✓ 密码",
		strings.Repeat("x", 4096),
	}

	for _, plaintext := range testCases {
		t.Run(fmt.Sprintf("len=%d", len(plaintext)), func(t *testing.T) {
			ct, err := c.Encrypt(plaintext, aad)
			require.NoError(t, err)

			got, err := c.Decrypt(ct, aad)
			require.NoError(t, err)
			assert.Equal(t, plaintext, got)
		})
	}
}

func TestCipher_CiphertextNeverEqualsPlaintext(t *testing.T) {
	c := newTestCipher(t, "test-cipher-key-0123456789")

	for _, s := range []string{"p@ss", "v1.", "hunter2"} {
		ct, err := c.Encrypt(s, nil)
		require.NoError(t, err)
		assert.NotEqual(t, s, ct)
		assert.True(t, strings.HasPrefix(ct, Prefix))
	}
}

func TestCipher_FreshNoncePerEncryption(t *testing.T) {
	c := newTestCipher(t, "test-cipher-key-0123456789")

	a, err := c.Encrypt("same", nil)
	require.NoError(t, err)
	b, err := c.Encrypt("same", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCipher_WrongKey(t *testing.T) {
	c1 := newTestCipher(t, "test-cipher-key-one-000000")
	c2 := newTestCipher(t, "test-cipher-key-two-000000")

	ct, err := c1.Encrypt("p@ss", nil)
	require.NoError(t, err)

	_, err = c2.Decrypt(ct, nil)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.ErrorIs(t, err, ErrCipher)
}

func TestCipher_WrongAssociatedData(t *testing.T) {
	c := newTestCipher(t, "test-cipher-key-0123456789")

	ct, err := c.Encrypt("p@ss", []byte("alice"))
	require.NoError(t, err)

	_, err = c.Decrypt(ct, []byte("bob"))
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestCipher_Tampered(t *testing.T) {
	c := newTestCipher(t, "test-cipher-key-0123456789")

	ct, err := c.Encrypt("p@ss", nil)
	require.NoError(t, err)

	raw, err := encoding.DecodeString(strings.TrimPrefix(ct, Prefix))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := Prefix + encoding.EncodeToString(raw)

	_, err = c.Decrypt(tampered, nil)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestCipher_Malformed(t *testing.T) {
	c := newTestCipher(t, "test-cipher-key-0123456789")

	testCases := []struct {
		name       string
		ciphertext string
	}{
		{"Empty", ""},
		{"NoPrefix", "U2FsdGVkX1+abc"},
		{"BadBase64", Prefix + "!!!not-base64!!!"},
		{"TooShort", Prefix + encoding.EncodeToString([]byte("short"))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Decrypt(tc.ciphertext, nil)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestCipher_SameSecretSameKey(t *testing.T) {
	c1 := newTestCipher(t, "shared-cipher-key-01234567")
	c2 := newTestCipher(t, "shared-cipher-key-01234567")

	ct, err := c1.Encrypt("p@ss", nil)
	require.NoError(t, err)

	got, err := c2.Decrypt(ct, nil)
	require.NoError(t, err)
	assert.Equal(t, "p@ss", got)
}

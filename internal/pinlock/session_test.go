package pinlock

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openSession(t *testing.T, store PinStore) *Session {
	t.Helper()
	s, err := Open(store, WithCost(bcrypt.MinCost))
	require.NoError(t, err)
	return s
}

func TestSession_PinFlowAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.db")

	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	first := openSession(t, store)
	assert.Equal(t, Unset, first.State())

	require.NoError(t, first.SetPin([]byte("1234")))
	assert.Equal(t, Unlocked, first.State())
	require.NoError(t, store.Close())

	// A new run with a stored PIN starts locked.
	store, err = OpenBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	second := openSession(t, store)
	assert.Equal(t, Locked, second.State())

	err = second.Attempt([]byte("0000"))
	assert.ErrorIs(t, err, ErrIncorrectPin)
	assert.Equal(t, Locked, second.State())

	require.NoError(t, second.Attempt([]byte("1234")))
	assert.Equal(t, Unlocked, second.State())
}

func TestSession_StoresHashNotPin(t *testing.T) {
	store := NewMemoryStore()
	s := openSession(t, store)

	require.NoError(t, s.SetPin([]byte("4321")))

	hash, err := store.LoadHash()
	require.NoError(t, err)
	assert.NotContains(t, string(hash), "4321")
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("4321")))
}

func TestSession_ClearsInput(t *testing.T) {
	s := openSession(t, NewMemoryStore())

	pin := []byte("1234")
	require.NoError(t, s.SetPin(pin))
	assert.Equal(t, []byte{0, 0, 0, 0}, pin)

	s.Lock()
	wrong := []byte("9999")
	assert.ErrorIs(t, s.Attempt(wrong), ErrIncorrectPin)
	assert.Equal(t, []byte{0, 0, 0, 0}, wrong)
}

func TestSession_SetPinValidation(t *testing.T) {
	testCases := []struct {
		name string
		pin  string
	}{
		{"Empty", ""},
		{"TooShort", "123"},
		{"TooLong", "12345"},
		{"Letters", "12a4"},
		{"NonASCIIDigits", "١٢٣٤"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := openSession(t, NewMemoryStore())

			err := s.SetPin([]byte(tc.pin))

			assert.ErrorIs(t, err, ErrInvalidPin)
			assert.Equal(t, Unset, s.State())
		})
	}
}

func TestSession_WrongShapeAttemptIsIncorrect(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, openSession(t, store).SetPin([]byte("1234")))
	s := openSession(t, store)

	assert.ErrorIs(t, s.Attempt([]byte("12345")), ErrIncorrectPin)
	assert.ErrorIs(t, s.Attempt(nil), ErrIncorrectPin)
	assert.Equal(t, Locked, s.State())
}

func TestSession_Transitions(t *testing.T) {
	s := openSession(t, NewMemoryStore())

	assert.ErrorIs(t, s.Attempt([]byte("1234")), ErrNoPin)

	require.NoError(t, s.SetPin([]byte("1234")))
	assert.ErrorIs(t, s.SetPin([]byte("5678")), ErrPinAlreadySet)

	// Attempts while unlocked are no-ops.
	assert.NoError(t, s.Attempt([]byte("0000")))
	assert.Equal(t, Unlocked, s.State())

	s.Lock()
	assert.Equal(t, Locked, s.State())
	assert.ErrorIs(t, s.SetPin([]byte("5678")), ErrPinAlreadySet)

	require.NoError(t, s.Reset())
	assert.Equal(t, Unset, s.State())
	require.NoError(t, s.SetPin([]byte("5678")))
	s.Lock()
	assert.ErrorIs(t, s.Attempt([]byte("1234")), ErrIncorrectPin)
	assert.NoError(t, s.Attempt([]byte("5678")))
}

type brokenStore struct{ MemoryStore }

func (b *brokenStore) LoadHash() ([]byte, error) { return nil, errors.New("disk gone") }

func TestOpen_StoreError(t *testing.T) {
	_, err := Open(&brokenStore{})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoPin)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unset", Unset.String())
	assert.Equal(t, "locked", Locked.String())
	assert.Equal(t, "unlocked", Unlocked.String())
	assert.Equal(t, "State(7)", State(7).String())
}

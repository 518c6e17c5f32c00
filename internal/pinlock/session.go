// Package pinlock is the local unlock gate in front of an already
// authenticated session. The PIN never leaves the device and grants no
// server access.
package pinlock

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PinLength is the number of digits in a PIN.
const PinLength = 4

var (
	ErrIncorrectPin  = errors.New("incorrect pin")
	ErrInvalidPin    = fmt.Errorf("pin must be exactly %d digits", PinLength)
	ErrPinAlreadySet = errors.New("pin already set")
)

type State int

const (
	Unset State = iota
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case Unset:
		return "unset"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Option func(*Session)

// WithCost sets the bcrypt cost used when a PIN is stored.
func WithCost(cost int) Option {
	return func(s *Session) {
		s.cost = cost
	}
}

// Session tracks the lock state for one process run. It starts Locked when
// a PIN is already stored and Unset otherwise.
type Session struct {
	mu    sync.Mutex
	store PinStore
	state State
	cost  int
}

func Open(store PinStore, opts ...Option) (*Session, error) {
	s := &Session{store: store, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}

	_, err := store.LoadHash()
	switch {
	case errors.Is(err, ErrNoPin):
		s.state = Unset
	case err != nil:
		return nil, fmt.Errorf("loading pin: %w", err)
	default:
		s.state = Locked
	}
	return s, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetPin stores the first PIN and unlocks. The pin buffer is zeroed.
func (s *Session) SetPin(pin []byte) error {
	defer clear(pin)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Unset {
		return ErrPinAlreadySet
	}
	if err := ValidatePin(pin); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword(pin, s.cost)
	if err != nil {
		return fmt.Errorf("hashing pin: %w", err)
	}
	if err := s.store.SaveHash(hash); err != nil {
		return fmt.Errorf("saving pin: %w", err)
	}
	s.state = Unlocked
	return nil
}

// Attempt unlocks when pin matches the stored one and returns
// ErrIncorrectPin otherwise, leaving the session Locked. There is no
// attempt limit. The pin buffer is zeroed.
func (s *Session) Attempt(pin []byte) error {
	defer clear(pin)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Unlocked:
		return nil
	case Unset:
		return ErrNoPin
	}

	hash, err := s.store.LoadHash()
	if err != nil {
		return fmt.Errorf("loading pin: %w", err)
	}
	if ValidatePin(pin) != nil || bcrypt.CompareHashAndPassword(hash, pin) != nil {
		return ErrIncorrectPin
	}
	s.state = Unlocked
	return nil
}

// Lock returns an unlocked session to Locked.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Unlocked {
		s.state = Locked
	}
}

// Reset removes the stored PIN.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clearing pin: %w", err)
	}
	s.state = Unset
	return nil
}

func ValidatePin(pin []byte) error {
	if len(pin) != PinLength {
		return ErrInvalidPin
	}
	for _, b := range pin {
		if b < '0' || b > '9' {
			return ErrInvalidPin
		}
	}
	return nil
}

package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateState(t *testing.T) {
	state1, err := GenerateState()
	assert.NoError(t, err)

	state2, err := GenerateState()
	assert.NoError(t, err)

	assert.NotEqual(t, state1, state2)
	// 32 random bytes, padded base64.
	assert.Len(t, state1, 44)
}

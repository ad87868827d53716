package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"))
	assert.True(t, IsValidAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b"))
	assert.False(t, IsValidAddress("ab5801a7d398351b8be11c439e05c5b3259aec9b"))
	assert.False(t, IsValidAddress("0x123"))
	assert.False(t, IsValidAddress(""))
	assert.False(t, IsValidAddress("0xZZ5801a7d398351b8be11c439e05c5b3259aec9b"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
		NormalizeAddress(" 0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B "))
}

func TestIsValidLotCode(t *testing.T) {
	assert.True(t, IsValidLotCode("BR-MG-2024-001"))
	assert.True(t, IsValidLotCode("CO-HUILA-23"))
	assert.False(t, IsValidLotCode(""))
	assert.False(t, IsValidLotCode("br-mg-2024"))
	assert.False(t, IsValidLotCode("-LEADING"))
}

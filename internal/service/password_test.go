package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hash)

	assert.True(t, VerifyPassword("Sup3rSecret", hash))
	assert.False(t, VerifyPassword("sup3rsecret", hash))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("anything", "not-a-bcrypt-hash"))
	assert.False(t, VerifyPassword("anything", ""))
}

func TestValidatePasswordPolicy(t *testing.T) {
	assert.NoError(t, ValidatePasswordPolicy("Abcdef12"))
	assert.Error(t, ValidatePasswordPolicy("Ab1"))
	assert.Error(t, ValidatePasswordPolicy("abcdefg1"))
	assert.Error(t, ValidatePasswordPolicy("ABCDEFG1"))
	assert.Error(t, ValidatePasswordPolicy("Abcdefgh"))
}

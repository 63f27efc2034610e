package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_Length(t *testing.T) {
	for _, length := range []int{1, 8, 16, 64} {
		code, err := GenerateCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
	}
}

func TestGenerateCode_InvalidLength(t *testing.T) {
	_, err := GenerateCode(0)
	assert.Error(t, err)

	_, err = GenerateCode(-5)
	assert.Error(t, err)
}

func TestGenerateCode_AlphabetOnly(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode(DefaultCodeLength)
		require.NoError(t, err)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected character %q in %s", r, code)
		}
	}
}

func TestGenerateCode_NoConfusableCharacters(t *testing.T) {
	for _, r := range "0O1IL" {
		assert.False(t, strings.ContainsRune(codeAlphabet, r), "alphabet must not contain %q", r)
	}
}

func TestGenerateCode_AlreadyNormalized(t *testing.T) {
	code, err := GenerateCode(DefaultCodeLength)
	require.NoError(t, err)
	assert.Equal(t, NormalizeCode(code), code)
}

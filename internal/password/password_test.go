package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotContains(t, hash, "correct horse")

	ok, err := Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashSaltsPerCall(t *testing.T) {
	first, err := Hash("password")
	require.NoError(t, err)
	second, err := Hash("password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	_, err := Hash("")
	require.ErrorIs(t, err, ErrVerifierFailure)
}

func TestVerifyMalformedCredentialDenies(t *testing.T) {
	for _, credential := range []string{"", "not-a-bcrypt-hash", "$1$legacy$abcdef"} {
		ok, err := Verify("password", credential)
		require.NoError(t, err, "credential %q", credential)
		assert.False(t, ok, "credential %q", credential)
	}
}

func TestSelfCheck(t *testing.T) {
	require.NoError(t, SelfCheck())
}

package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	Cost = bcrypt.MinCost

	hash, err := Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hash)

	assert.True(t, Verify("1234", hash))
	assert.False(t, Verify("4321", hash))
	assert.False(t, Verify("1234", ""))
}

func TestValidPIN(t *testing.T) {
	cases := map[string]bool{
		"1234":  true,
		"0000":  true,
		"123":   false,
		"12345": false,
		"12a4":  false,
		" 123":  false,
		"":      false,
		"١٢٣٤":  false,
	}
	for pin, want := range cases {
		assert.Equal(t, want, ValidPIN(pin), "pin %q", pin)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.False(t, ValidatePassword("short"))
	assert.True(t, ValidatePassword("longenough"))
}

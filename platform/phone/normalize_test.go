package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeE164(t *testing.T) {
	assert.Equal(t, "+251911234567", NormalizeE164("0911 234 567", "ET"))
	assert.Equal(t, "+251911234567", NormalizeE164("+251911234567", ""))
	assert.Equal(t, "not a number", NormalizeE164("  not a number ", "ET"))
	assert.Equal(t, "", NormalizeE164("   ", "ET"))
}

func TestWhatsAppDigits(t *testing.T) {
	digits, ok := WhatsAppDigits("0911234567", "ET")
	assert.True(t, ok)
	assert.Equal(t, "251911234567", digits)

	_, ok = WhatsAppDigits("12", "ET")
	assert.False(t, ok)

	_, ok = WhatsAppDigits("", "ET")
	assert.False(t, ok)
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"sari.budi@example.com",
		"halo@mahligai.id",
		"a+b@sub.domain.co.id",
	}
	for _, e := range valid {
		assert.NoError(t, ValidateEmail(e), e)
	}

	invalid := []string{
		"",
		"not-an-email",
		"@example.com",
		"sari@",
		"sari@domain",
	}
	for _, e := range invalid {
		assert.Error(t, ValidateEmail(e), e)
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{
		"+62 812-3456-7890",
		"081234567890",
		"6281234567890",
		"+628111111222",
	}
	for _, p := range valid {
		assert.NoError(t, ValidatePhone(p), p)
	}

	invalid := []string{
		"",
		"12",
		"+1 555 123 4567",
		"0712345678", // landline prefix, not a mobile number
		"abc",
	}
	for _, p := range invalid {
		assert.Error(t, ValidatePhone(p), p)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Sari & Budi", SanitizeString("Sari & Budi"))
	assert.Equal(t, "SariBudi", SanitizeString("Sari\x00Budi\x1f"))
	assert.Equal(t, "baris satubaris dua", SanitizeString("baris satu\nbaris dua"))
}

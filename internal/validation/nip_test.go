package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidNIP(t *testing.T) {
	tests := []struct {
		nip   string
		valid bool
	}{
		{"1234567854", true},
		{"123-456-78-54", true},
		{"123 456 78 54", true},
		{"PL1234567854", true},
		{"1234567890", false},
		{"0000000000", false},
		{"123456785", false},
		{"12345678545", false},
		{"", false},
		{"abcdefghij", false},
	}

	for _, tt := range tests {
		t.Run(tt.nip, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidNIP(tt.nip))
		})
	}
}

func TestNormalizeNIP(t *testing.T) {
	assert.Equal(t, "1234567854", NormalizeNIP(" pl 123-456-78-54 "))
	assert.Equal(t, "1234567854", NormalizeNIP("123 456 78 54"))
}

func TestFindNIPCandidates(t *testing.T) {
	text := "NIP: 123-456-78-54, REGON 12345, telefon 22 123 45 67, inny numer 5260250274."
	candidates := FindNIPCandidates(text)
	assert.Contains(t, candidates, "1234567854")
	assert.Contains(t, candidates, "5260250274")
	assert.NotContains(t, candidates, "12345")
}

func TestFindNIPCandidates_EUPrefix(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"attached prefix", "NIP: PL1234567854", []string{"1234567854"}},
		{"lowercase prefix", "nip pl1234567854.", []string{"1234567854"}},
		{"prefix with separators", "VAT UE: PL123-456-78-54", []string{"1234567854"}},
		{"spaced prefix", "NIP PL 1234567854", []string{"1234567854"}},
		{"prefix inside word", "XPL1234567854", []string{}},
		{"eleven digits", "numer 91234567854", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindNIPCandidates(tt.text))
		})
	}
}

func TestFindNIPCandidates_None(t *testing.T) {
	assert.Empty(t, FindNIPCandidates("Koszty wyniosły 194 000,00 zł w 2024 r."))
}

package rfid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tapin14/tapin/internal/rfid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no leading zeros", "AB12CD", "AB12CD"},
		{"single leading zero", "0123", "123"},
		{"many leading zeros", "0007", "7"},
		{"all zeros", "0000", "0"},
		{"single zero", "0", "0"},
		{"empty passes through", "", ""},
		{"interior zeros preserved", "1002300", "1002300"},
		{"hex-style uid", "04A2B90C", "4A2B90C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rfid.Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"", "0", "0000", "007", "7", "04A2B90C", "RFID001"}
	for _, in := range inputs {
		once := rfid.Normalize(in)
		assert.Equal(t, once, rfid.Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestNormalize_NoLeadingZeroUnlessZero(t *testing.T) {
	inputs := []string{"0", "00", "01", "007", "0A0", "10"}
	for _, in := range inputs {
		got := rfid.Normalize(in)
		if got == "0" {
			continue
		}
		assert.False(t, len(got) > 0 && got[0] == '0', "normalized %q -> %q still has a leading zero", in, got)
	}
}

package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Drugname Hydrochloride (USP)", "Drugname Hydrochloride"},
		{"  Brandix® 10mg*  ", "Brandix 10mg"},
		{"Tradem™ (micronized) (EP)", "Tradem"},
		{"", ""},
		{"(only a note)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Canonicalize(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Canonicalize(got), "canonicalization must be idempotent")
		})
	}
}

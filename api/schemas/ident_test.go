package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPascalIdent(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{"All payment journals", "AllPaymentJournals"},
		{"SalesTableListPage", "SalesTableListPage"},
		{"customer account", "CustomerAccount"},
		{"Save & close", "SaveClose"},
		{"1099 fields", "N1099Fields"},
		{"  spaced   out  ", "SpacedOut"},
		{"", ""},
		{"---", ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, PascalIdent(tc.input))
		})
	}
}

func TestCamelIdent(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{"All payment journals", "allPaymentJournals"},
		{"Save", "save"},
		{"URL settings", "urlSettings"},
		{"OK", "ok"},
		{"customer account", "customerAccount"},
		{"", ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, CamelIdent(tc.input))
		})
	}
}

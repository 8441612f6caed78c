package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/scribe-cli/internal/config"
)

func TestSplitArg(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		arg       string
		wantName  string
		wantValue interface{}
	}{
		{
			name:      "bare switch becomes boolean flag",
			arg:       "--disable-dev-shm-usage",
			wantName:  "disable-dev-shm-usage",
			wantValue: true,
		},
		{
			name:      "valued flag keeps its value",
			arg:       "--proxy-server=http://127.0.0.1:8080",
			wantName:  "proxy-server",
			wantValue: "http://127.0.0.1:8080",
		},
		{
			name:      "single dash is accepted",
			arg:       "-lang=en-US",
			wantName:  "lang",
			wantValue: "en-US",
		},
		{
			name:      "no dashes is accepted",
			arg:       "start-maximized",
			wantName:  "start-maximized",
			wantValue: true,
		},
		{
			name:      "value containing equals splits at the first one",
			arg:       "--js-flags=--max-old-space-size=4096",
			wantName:  "js-flags",
			wantValue: "--max-old-space-size=4096",
		},
		{
			name:      "dashes only is dropped",
			arg:       "--",
			wantName:  "",
			wantValue: nil,
		},
		{
			name:      "whitespace is dropped",
			arg:       "   ",
			wantName:  "",
			wantValue: nil,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			name, value := splitArg(tc.arg)
			assert.Equal(t, tc.wantName, name)
			assert.Equal(t, tc.wantValue, value)
		})
	}
}

func TestAllocatorOptions(t *testing.T) {
	t.Parallel()

	base := config.BrowserConfig{}
	baseline := len(allocatorOptions(base))

	testCases := []struct {
		name  string
		cfg   config.BrowserConfig
		extra int
	}{
		{
			name:  "custom executable adds one option",
			cfg:   config.BrowserConfig{ExecPath: "/usr/bin/chromium"},
			extra: 1,
		},
		{
			name:  "profile dir adds one option",
			cfg:   config.BrowserConfig{UserDataDir: "/tmp/profile"},
			extra: 1,
		},
		{
			name:  "tls override adds one option",
			cfg:   config.BrowserConfig{IgnoreTLSErrors: true},
			extra: 1,
		},
		{
			name:  "extra args are forwarded and blanks dropped",
			cfg:   config.BrowserConfig{Args: []string{"--disable-extensions", "--", "--lang=en-US"}},
			extra: 2,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Len(t, allocatorOptions(tc.cfg), baseline+tc.extra)
		})
	}
}

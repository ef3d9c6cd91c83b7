package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"upper", "HeLLo", "hello"},
		{"leet digits", "h3ll0", "hello"},
		{"leet symbols", "$h!t", "shit"},
		{"at sign", "b@dword", "badword"},
		{"mixed leet", "b4dw0rd", "badword"},
		{"separators removed", "b.a.d w-o_r+d", "badword"},
		{"comma and star", "b*a,d", "bad"},
		{"stretched", "heeeello", "hello"},
		{"double kept", "aa", "aa"},
		{"triple collapsed", "aaa", "a"},
		{"accents", "Café", "cafe"},
		{"more accents", "ñandú", "nandu"},
		{"full width", "ｂａｄ", "bad"},
		{"full width upper", "ＢＡＤ", "bad"},
		{"pipe as i", "k|ll", "kill"},
		{"empty", "", ""},
		{"only separators", " . - _ ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"hello world",
		"HEEEELLO",
		"0o0",
		"a a a",
		"1!|í",
		"ÉÉÉé",
		"ＡＢＣ ｄｅｆ",
		"İstanbul",
		"x\xffy",
		"b...a...d",
		"s0000 c00l!!!",
		"aabbaaabb",
		"ｶﾀｶﾅ",
		"€$@",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize not idempotent for %q", in)
	}
}

func TestCollapseRuns(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"a", "a"},
		{"aa", "aa"},
		{"aaa", "a"},
		{"aaaaab", "ab"},
		{"abbbcccc", "abc"},
		{"aabbaa", "aabbaa"},
		{"ééé", "é"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, collapseRuns(tt.input, collapseThreshold), "collapseRuns(%q)", tt.input)
	}
}

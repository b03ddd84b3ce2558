package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleaner_Clean(t *testing.T) {
	tests := []struct {
		name   string
		remove bool
		input  string
		want   string
	}{
		{"punctuation kept", true, "  Hello   World!! ", "hello world!!"},
		{
			"sentence sample",
			true,
			"  Hello   World! How are you doing today? Is it 2024 yet?! Let's test this... It's great!  ",
			"hello world! how are you doing today? is it 2024 yet?! let's test this... it's great!",
		},
		{"special chars removed", true, "Price: $100 (approx.) #deal @home", "price 100 approx. deal home"},
		{"removal can leave double spaces", true, "a @ b", "a  b"},
		{"non-latin removed", true, "你好，世界", ""},
		{"accents removed", true, "ÉCOLE", "cole"},
		{"keep special", false, "Price: $100 (approx.)", "price: $100 (approx.)"},
		{"keep non-latin", false, "你好，世界", "你好，世界"},
		{"unicode lowercase", false, "ÉCOLE", "école"},
		{"tabs and newlines", false, "Tabs\tand\nNewlines\r\n", "tabs and newlines"},
		{"unicode spaces", false, "a\u00a0\u00a0b\u3000c", "a b c"},
		{"empty", true, "", ""},
		{"only whitespace", true, " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCleaner(tt.remove).Clean(tt.input))
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "Keep Case", NormalizeWhitespace("  Keep \n\n Case\t"))
	assert.Equal(t, "", NormalizeWhitespace("   "))
}

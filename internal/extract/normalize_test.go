package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "bullets and blank lines",
			input: "• Nike Air\r\n\r\n- Розмір: 42\r* Ціна: 1500",
			want:  []string{"Nike Air", "Розмір: 42", "Ціна: 1500"},
		},
		{
			name:  "emoji and variation selectors are dropped",
			input: "🔥🔥 Новинка ❤️ Adidas‍ Samba",
			want:  []string{"Новинка Adidas Samba"},
		},
		{
			name:  "nbsp tabs and dashes",
			input: "Ціна: 1 500\tгрн — дроп",
			want:  []string{"Ціна: 1 500 грн - дроп"},
		},
		{
			name:  "fullwidth digits fold",
			input: "Розмір ４２",
			want:  []string{"Розмір 42"},
		},
		{
			name:  "unicode line separators split lines",
			input: "Назва: Nike Air\u2028Ціна: 1500 грн\u2029Розмір 42",
			want:  []string{"Назва: Nike Air", "Ціна: 1500 грн", "Розмір 42"},
		},
		{
			name:  "vertical tab form feed and next line split lines",
			input: "Nike Air\vРозмір 42\fЦіна 1500\u0085Колір: чорний",
			want:  []string{"Nike Air", "Розмір 42", "Ціна 1500", "Колір: чорний"},
		},
		{
			name:  "only markup",
			input: "---\n***\n>>>",
			want:  nil,
		},
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
		"  • Кросівки  Nike\t\tAir Max 90 ✅\n\n",
		"Ціна: 1 500,50 грн\r\nРозмір 36–41\r\n",
		"e‍́ combining after joiner",
		"\xff\xfe broken utf8 \xc3",
		"Nike Air\u2028Ціна\u0085Розмір\v42",
		strings.Repeat("a ", 3000),
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once), "input %q", in)
		for _, line := range Normalize(in) {
			assert.NotContains(t, line, "\n")
			assert.NotEmpty(t, line)
		}
	}
}

package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "Finland hosts summit", want: "Finland hosts summit"},
		{name: "collapses whitespace", input: "  Finland \n\t hosts   summit ", want: "Finland hosts summit"},
		{name: "paragraph markup", input: "<p>Visit <b>Helsinki</b> today</p>", want: "Visit Helsinki today"},
		{name: "entities", input: "Alaj&auml;rvi &amp; Kurejoki", want: "Alajärvi & Kurejoki"},
		{name: "drops script", input: "<div>News<script>var finland = 1;</script></div>", want: "News"},
		{name: "image only", input: `<img src="https://example.com/a.jpg" alt="Lapland">`, want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.input))
		})
	}
}

package request

import (
	"fmt"
	"strings"

	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/params"
)

const continuation = " \\\n  "

// CommandText renders the request BuildParts would assemble as a curl
// invocation: method, quoted URL, one -H per header in assembly order and a
// single -d with the indented JSON body when one is attached.
//
// The api_key is printed in plain text. The executor's fixed User-Agent is not
// part of the logical request and is left out.
func CommandText(ep catalog.Endpoint, apiKey string, o *params.Overrides) string {
	return BuildParts(ep, apiKey, o).CommandText()
}

// CommandText renders already assembled parts
func (p Parts) CommandText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "curl -X %s \"%s\"", p.Method, escapeDouble(p.URL))

	for _, h := range p.Headers {
		b.WriteString(continuation)
		fmt.Fprintf(&b, "-H \"%s: %s\"", escapeDouble(h.Name), escapeDouble(h.Value))
	}

	if p.Body != nil {
		body, err := p.Body.Indent()
		if err != nil {
			// Bodies only hold strings and decoded JSON objects
			body = "{}"
		}
		b.WriteString(continuation)
		fmt.Fprintf(&b, "-d '%s'", escapeSingle(body))
	}

	return b.String()
}

// escapeDouble escapes the characters the shell interprets inside double quotes
func escapeDouble(s string) string {
	if !strings.ContainsAny(s, "\\\"$`") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeSingle closes and reopens the single-quoted string around each quote
func escapeSingle(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

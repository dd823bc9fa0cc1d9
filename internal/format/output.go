package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"github.com/vedsharma/momentscli/internal/model"
)

// Out receives all terminal output
var Out io.Writer = color.Output

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			result.WriteRune(r)
		case r == '\x1b':
			// Escape ANSI escape sequences - replace ESC with visible representation
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
)

var statusDescriptions = map[int]string{
	200: "OK - The request was successful",
	400: "Bad Request - The request was malformed or invalid",
	401: "Unauthorized - The request requires authentication",
	403: "Forbidden - The request is not authorized to access the requested resource",
	404: "Not Found - The requested resource was not found",
	422: "Unprocessable Entity - The request sent invalid inputs",
}

// StatusDescription explains the status codes the API documents
func StatusDescription(code int) string {
	if d, ok := statusDescriptions[code]; ok {
		return d
	}
	return "Unknown status code"
}

// PrintResponse prints a normalized response
func PrintResponse(resp *model.Response, showHeaders bool) {
	printStatusLine(resp)

	dimColor.Fprintf(Out, "  Time: %dms\n\n", resp.ElapsedMs)

	if d, ok := resp.Diagnostic(); ok {
		printDiagnostic(d)
		return
	}

	if showHeaders {
		printHeaders(resp.Headers)
	}

	printBody(resp.Data)
}

func printStatusLine(resp *model.Response) {
	if resp.TransportFailed() {
		clientErrColor.Fprintf(Out, "%s\n", sanitizeOutput(resp.StatusText))
		return
	}
	getStatusColor(resp.Status).Fprintf(Out, "%d %s\n", resp.Status, sanitizeOutput(resp.StatusText))
	dimColor.Fprintf(Out, "  %s\n", StatusDescription(resp.Status))
}

func printDiagnostic(d model.Diagnostic) {
	clientErrColor.Fprintf(Out, "%s\n", d.Error)
	fmt.Fprintln(Out, sanitizeOutput(d.Message))
	if d.Suggestion != "" {
		dimColor.Fprintf(Out, "%s\n", sanitizeOutput(d.Suggestion))
	}
	if d.Details != "" {
		dimColor.Fprintf(Out, "  %s\n", sanitizeOutput(d.Details))
	}
}

func getStatusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func printHeaders(headers map[string]string) {
	if len(headers) == 0 {
		return
	}

	fmt.Fprintln(Out, "Headers:")

	// Sort headers for consistent output
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		headerKeyColor.Fprintf(Out, "  %s: ", sanitizeOutput(key))
		fmt.Fprintln(Out, sanitizeOutput(headers[key]))
	}
	fmt.Fprintln(Out)
}

func printBody(data any) {
	text := renderData(data)
	if text == "" {
		dimColor.Fprintln(Out, "(empty body)")
		return
	}
	fmt.Fprintln(Out, sanitizeOutput(text))
}

// renderData pretty-prints decoded JSON and passes text through
func renderData(data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return prettyJSON(v)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimRight(buf.String(), "\n")
	}
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		return s
	}
	return out.String()
}

// PrintCommand prints generated command text verbatim so it can be piped
func PrintCommand(text string) {
	fmt.Fprintln(Out, text)
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Fprintf(Out, "✓ %s\n", msg)
}

// PrintError prints an error message
func PrintError(msg string) {
	clientErrColor.Fprintf(Out, "✗ %s\n", msg)
}

// PrintWarning prints a non-fatal notice
func PrintWarning(msg string) {
	redirectColor.Fprintf(Out, "! %s\n", msg)
}

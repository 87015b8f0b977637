// Package colorize applies terminal syntax highlighting to the smali text
// the patcher reads and writes, so injected regions can be previewed at
// high verbosity.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// getSmaliLexer returns a lexer for the baksmali dialect with fallbacks
func getSmaliLexer() chroma.Lexer {
	candidates := []string{"smali", "Smali", "gas"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getSmaliStyle returns the highlighting style with fallbacks
func getSmaliStyle() *chroma.Style {
	// Try our custom style first, then fallbacks
	candidates := []string{"smali-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Smali highlights a smali fragment for the terminal. With colors
// disabled, or no usable lexer, the input comes back untouched.
func Smali(code string) string {
	if os.Getenv("APKPATCHER_NO_COLOR") != "" {
		return code
	}

	lexer := getSmaliLexer()
	if lexer == nil {
		return code
	}

	// Make sure our custom style is registered
	_ = SmaliDark

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getSmaliStyle(), iterator); err != nil {
		return code
	}
	return buf.String()
}

// Region extracts the lines around a byte offset and highlights them.
// Used to show where the load-library call landed.
func Region(src string, offset, contextLines int) string {
	if offset < 0 || offset > len(src) {
		return ""
	}

	lines := strings.Split(src, "\n")
	at := strings.Count(src[:offset], "\n")

	from := at - contextLines
	if from < 0 {
		from = 0
	}
	to := at + contextLines
	if to > len(lines)-1 {
		to = len(lines) - 1
	}

	return Smali(strings.Join(lines[from:to+1], "\n"))
}

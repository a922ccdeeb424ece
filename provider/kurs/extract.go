package kurs

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extraction is the result of scanning a listing page
type Extraction struct {
	// Literals are the captured array literals, in discovery order
	Literals []string

	// Scripts is the number of inline script blocks found
	Scripts int
}

// Extractor locates the embedded listing literals in page markup
type Extractor struct {
	markers []string
}

// NewExtractor creates a new extractor with the given primary markers
// (JavaScript variable names)
func NewExtractor(markers ...string) *Extractor {
	return &Extractor{
		markers: dedupe(markers),
	}
}

// Extract scans every inline script block of the page for the city's markers.
// Pages that can't be parsed yield an empty extraction
func (e *Extractor) Extract(page io.Reader, city *City) *Extraction {
	out := &Extraction{}

	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return out
	}

	markers := e.markersFor(city)

	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}

		out.Scripts++

		text := sel.Text()

		for _, marker := range markers {
			if literal, ok := findLiteral(text, marker); ok {
				out.Literals = append(out.Literals, literal)
			}
		}
	})

	return out
}

// markersFor returns the city markers first, followed by the primary markers
func (e *Extractor) markersFor(city *City) []string {
	if city == nil || len(city.Markers) == 0 {
		return e.markers
	}

	markers := make([]string, 0, len(city.Markers)+len(e.markers))
	markers = append(markers, city.Markers...)
	markers = append(markers, e.markers...)

	return dedupe(markers)
}

// findLiteral finds the first array literal assigned to the named variable
func findLiteral(text, name string) (string, bool) {
	if name == "" {
		return "", false
	}

	for from := 0; from < len(text); {
		idx := strings.Index(text[from:], name)
		if idx == -1 {
			return "", false
		}

		var (
			start = from + idx
			end   = start + len(name)
		)

		from = end

		// The name must be a whole identifier
		if start > 0 && isIdentByte(text[start-1]) {
			continue
		}

		if end < len(text) && isIdentByte(text[end]) {
			continue
		}

		// Expect `= [` (whitespace tolerant), but not `==`
		i := skipSpace(text, end)
		if i >= len(text) || text[i] != '=' {
			continue
		}

		if i+1 < len(text) && text[i+1] == '=' {
			continue
		}

		i = skipSpace(text, i+1)
		if i >= len(text) || text[i] != '[' {
			continue
		}

		if literal, ok := scanArray(text, i); ok {
			return literal, true
		}
	}

	return "", false
}

// scanArray captures the bracket-delimited literal starting at text[start],
// up to its matching closing bracket. String literals are skipped
func scanArray(text string, start int) (string, bool) {
	var (
		stack   = make([]byte, 0, 16)
		quote   byte
		escaped bool
	)

	for i := start; i < len(text); i++ {
		c := text[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", false // mismatched brackets
			}

			stack = stack[:len(stack)-1]

			if len(stack) == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false // unterminated
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}

	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func dedupe(markers []string) []string {
	var (
		seen = make(map[string]struct{}, len(markers))
		out  = make([]string, 0, len(markers))
	)

	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}

		if _, ok := seen[m]; ok {
			continue
		}

		seen[m] = struct{}{}
		out = append(out, m)
	}

	return out
}

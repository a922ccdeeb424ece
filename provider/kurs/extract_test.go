package kurs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(scripts ...string) string {
	var b strings.Builder

	b.WriteString("<!doctype html><html><head><title>Kurs</title></head><body>")

	for _, s := range scripts {
		b.WriteString("<script>")
		b.WriteString(s)
		b.WriteString("</script>")
	}

	b.WriteString("</body></html>")

	return b.String()
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	var (
		astana = &City{Name: "Astana", Query: "astana"}
		almaty = &City{Name: "Almaty", Query: "almaty", Markers: []string{"punktsFromInternet"}}
	)

	t.Run("no scripts", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor("punkts")

		out := e.Extract(strings.NewReader("<html><body>nothing</body></html>"), astana)

		assert.Zero(t, out.Scripts)
		assert.Empty(t, out.Literals)
	})

	t.Run("script without marker", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor("punkts")

		out := e.Extract(strings.NewReader(page(`var other = [{"a":1}];`)), astana)

		assert.Equal(t, 1, out.Scripts)
		assert.Empty(t, out.Literals)
	})

	t.Run("external scripts are skipped", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor("punkts")

		html := `<html><head><script src="/app.js"></script></head><body></body></html>`
		out := e.Extract(strings.NewReader(html), astana)

		assert.Zero(t, out.Scripts)
	})

	t.Run("nested structures", func(t *testing.T) {
		t.Parallel()

		var (
			e       = NewExtractor("punkts")
			literal = `[{"id":1,"data":{"USD":[470,475]},"workmodes":{"mon":["09:00","18:00"]}},` +
				`{"id":2,"note":"odd ]} chars \" [{ inside"}]`
		)

		out := e.Extract(strings.NewReader(page("var punkts = "+literal+";\nvar x = 1;")), astana)

		require.Len(t, out.Literals, 1)
		assert.Equal(t, literal, out.Literals[0])
	})

	t.Run("priority marker first", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor("punkts")

		out := e.Extract(strings.NewReader(page(
			`var punkts = [{"id":2}]; var punktsFromInternet = [{"id":1}];`,
		)), almaty)

		require.Len(t, out.Literals, 2)
		assert.Equal(t, `[{"id":1}]`, out.Literals[0])
		assert.Equal(t, `[{"id":2}]`, out.Literals[1])
	})

	t.Run("priority marker ignored for other cities", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor("punkts")

		out := e.Extract(strings.NewReader(page(
			`var punktsFromInternet = [{"id":1}]; var punkts = [{"id":2}];`,
		)), astana)

		require.Len(t, out.Literals, 1)
		assert.Equal(t, `[{"id":2}]`, out.Literals[0])
	})

	t.Run("multiple blocks", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor("punkts")

		out := e.Extract(strings.NewReader(page(
			`var punkts = [{"id":1}];`,
			`console.log("hi");`,
			`var punkts=[{"id":2}]`,
		)), astana)

		assert.Equal(t, 3, out.Scripts)
		assert.Equal(t, []string{`[{"id":1}]`, `[{"id":2}]`}, out.Literals)
	})

	t.Run("unterminated literal", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor("punkts")

		out := e.Extract(strings.NewReader(page(`var punkts = [{"id":1}`)), astana)

		assert.Equal(t, 1, out.Scripts)
		assert.Empty(t, out.Literals)
	})
}

func TestFindLiteral(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		name     string
		text     string
		expected string
		found    bool
	}{
		{
			"simple assignment",
			`var punkts = [1,2];`,
			`[1,2]`,
			true,
		},
		{
			"longer identifier is not a match",
			`var punktsOld = [1]; var punkts = [2];`,
			`[2]`,
			true,
		},
		{
			"prefixed identifier is not a match",
			`var mypunkts = [1];`,
			``,
			false,
		},
		{
			"comparison is not an assignment",
			`if (punkts == [1]) {}`,
			``,
			false,
		},
		{
			"non-array assignment",
			`var punkts = null;`,
			``,
			false,
		},
		{
			"whitespace tolerant",
			"var punkts\n=\n\t[{\"a\":[1,{\"b\":2}]}]",
			`[{"a":[1,{"b":2}]}]`,
			true,
		},
		{
			"single quoted strings",
			`var punkts = ['a]', "b\"]"];`,
			`['a]', "b\"]"]`,
			true,
		},
		{
			"mismatched brackets",
			`var punkts = [{]}`,
			``,
			false,
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			literal, found := findLiteral(testCase.text, "punkts")

			assert.Equal(t, testCase.found, found)
			assert.Equal(t, testCase.expected, literal)
		})
	}
}

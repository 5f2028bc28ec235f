package kb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKB(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_Shape(t *testing.T) {
	kb := Default()
	assert.GreaterOrEqual(t, len(kb.Entries()), 5)
	for _, k := range kb.Keywords() {
		assert.NotEmpty(t, k.Answer, "keyword %q", k.Keyword)
	}
	assert.Equal(t, "Where is the library?", kb.Questions()[0])
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	_, err = New([]Entry{{Question: "q", Answer: " "}}, nil)
	assert.Error(t, err)

	_, err = New([]Entry{{Question: "q", Answer: "a"}}, []Keyword{{Keyword: "  ", Answer: "a"}})
	assert.Error(t, err)
}

func TestNew_LowercasesKeywords(t *testing.T) {
	kb, err := New([]Entry{{Question: "q", Answer: "a"}}, []Keyword{{Keyword: " Dining Hall ", Answer: "a"}})
	require.NoError(t, err)
	assert.Equal(t, "dining hall", kb.Keywords()[0].Keyword)
}

func TestLoad(t *testing.T) {
	path := writeKB(t, `
entries:
  - question: When does the cafeteria open?
    answer: The cafeteria opens at 7am.
  - question: How do I get a parking permit?
    answer: Apply at the Security Office.
keywords:
  - keyword: Cafeteria
    entry: 0
  - keyword: parking
    entry: 1
`)
	kb, err := Load(path)
	require.NoError(t, err)
	require.Len(t, kb.Entries(), 2)
	assert.Equal(t, []Keyword{
		{Keyword: "cafeteria", Answer: "The cafeteria opens at 7am."},
		{Keyword: "parking", Answer: "Apply at the Security Office."},
	}, kb.Keywords())
	assert.Equal(t, "Apply at the Security Office.", kb.Match("any parking nearby"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeKB(t, "entries: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeKB(t, `
entries:
  - question: q
    answer: a
keywords:
  - keyword: k
    entry: 3
`))
	assert.ErrorContains(t, err, "references entry 3")

	_, err = Load(writeKB(t, "entries: []\n"))
	assert.Error(t, err)
}

func TestEntries_ReturnsCopy(t *testing.T) {
	kb := Default()
	entries := kb.Entries()
	entries[0].Answer = "mutated"
	assert.NotEqual(t, "mutated", kb.Entries()[0].Answer)
}

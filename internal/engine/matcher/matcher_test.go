package matcher_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sdsmatch/internal/engine/matcher"
	"github.com/turtacn/sdsmatch/internal/engine/schema"
	"github.com/turtacn/sdsmatch/pkg/types"
)

func leaf(name string, kind types.FieldKind) *types.SchemaNode {
	return &types.SchemaNode{
		Name:        name,
		Kind:        kind,
		SearchTerms: schema.GenerateSearchTerms(name),
		Priority:    schema.FieldPriority(name),
	}
}

func prepare(text string) *matcher.PreparedDoc {
	return matcher.Prepare(&types.Document{Text: text})
}

func TestExtract_ColonPattern(t *testing.T) {
	t.Parallel()

	m := matcher.NewMatcher(nil, nil, nil, nil)
	d := prepare("Section 1\nProduct Name: Acme Cleaner Plus\nSupplier: Acme Corp\n")

	v, ok := m.Extract("productName", leaf("productName", types.KindString), d)
	require.True(t, ok)
	assert.Equal(t, "Acme Cleaner Plus", v)
}

func TestExtract_SameLinePattern(t *testing.T) {
	t.Parallel()

	m := matcher.NewMatcher(nil, nil, nil, nil)
	d := prepare("Product Name XXXXX Regular-Bleach\nSignal word Danger\n")

	v, ok := m.Extract("productName", leaf("productName", types.KindString), d)
	require.True(t, ok)
	assert.Equal(t, "XXXXX Regular-Bleach", v)

	v, ok = m.Extract("signalWord", leaf("signalWord", types.KindString), d)
	require.True(t, ok)
	assert.Equal(t, "Danger", v)
}

func TestExtract_IdentifierField(t *testing.T) {
	t.Parallel()

	m := matcher.NewMatcher(nil, nil, nil, nil)
	d := prepare("CAS-No: 7681-52-9\nEC-No: 231-668-3\n")

	v, ok := m.Extract("casNumber", leaf("casNumber", types.KindString), d)
	require.True(t, ok)
	assert.Equal(t, "7681-52-9", v)
}

func TestExtract_NumberConversion(t *testing.T) {
	t.Parallel()

	m := matcher.NewMatcher(nil, nil, nil, nil)
	d := prepare("pH Value: 12.5 (concentrate)\n")

	v, ok := m.Extract("phValue", leaf("phValue", types.KindNumber), d)
	require.True(t, ok)
	assert.Equal(t, 12.5, v)
}

func TestExtract_BooleanConversion(t *testing.T) {
	t.Parallel()

	m := matcher.NewMatcher(nil, nil, nil, nil)
	d := prepare("Flammable: yes\n")

	v, ok := m.Extract("flammable", leaf("flammable", types.KindBoolean), d)
	require.True(t, ok)
	assert.Equal(t, true, v)
}

func TestExtract_TableStrategy(t *testing.T) {
	t.Parallel()

	m := matcher.NewMatcher(nil, nil, nil, nil)
	d := matcher.Prepare(&types.Document{
		Tables: []types.Table{{Rows: [][]string{
			{"Product Name", "Acme Degreaser"},
			{"Signal Word", "Warning"},
		}}},
	})

	v, ok := m.Extract("productName", leaf("productName", types.KindString), d)
	require.True(t, ok)
	assert.Equal(t, "Acme Degreaser", v)

	v, ok = m.Extract("signalWord", leaf("signalWord", types.KindString), d)
	require.True(t, ok)
	assert.Equal(t, "Warning", v)
}

func TestExtract_FuzzyStrategy(t *testing.T) {
	t.Parallel()

	m := matcher.NewMatcher(nil, nil, nil, nil)
	// "Numbr" keeps every literal term from matching; only the fuzzy line
	// split can recover the value.
	d := prepare("Lot Numbr: ABC-1234\n")

	v, ok := m.Extract("lotNumber", leaf("lotNumber", types.KindString), d)
	require.True(t, ok)
	assert.Equal(t, "ABC-1234", v)
}

func TestExtract_WindowFallback(t *testing.T) {
	t.Parallel()

	m := matcher.NewMatcher(nil, nil, nil, nil)
	long := "this spray is intended for industrial surface preparation and " +
		"must be stored upright in a ventilated area away from direct sunlight at all times"
	d := prepare("Description " + long + "\n")

	v, ok := m.Extract("description", leaf("description", types.KindString), d)
	require.True(t, ok)
	require.IsType(t, "", v)
	assert.True(t, strings.HasPrefix(v.(string), "this spray"), "got %q", v)
}

func TestExtract_MissOnEmptyDocument(t *testing.T) {
	t.Parallel()

	m := matcher.NewMatcher(nil, nil, nil, nil)
	d := prepare("")

	_, ok := m.Extract("productName", leaf("productName", types.KindString), d)
	assert.False(t, ok)
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	text := "Product Name: Acme Cleaner\nCAS-No: 7681-52-9\nSignal word Danger\n"
	node := leaf("productName", types.KindString)

	first, ok := matcher.NewMatcher(nil, nil, nil, nil).Extract("productName", node, prepare(text))
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		v, ok := matcher.NewMatcher(nil, nil, nil, nil).Extract("productName", node, prepare(text))
		require.True(t, ok)
		assert.Equal(t, first, v)
	}
}

func TestExtract_MemoDoesNotChangeResult(t *testing.T) {
	t.Parallel()

	text := "Product Name: Acme Cleaner\n"
	node := leaf("productName", types.KindString)

	withMemo := matcher.NewMatcher(&matcher.Config{MemoCapacity: 16}, nil, nil, nil)
	noMemo := matcher.NewMatcher(&matcher.Config{MemoCapacity: 0}, nil, nil, nil)

	d := prepare(text)
	v1, ok1 := withMemo.Extract("productName", node, d)
	v2, ok2 := withMemo.Extract("productName", node, d) // memo hit
	v3, ok3 := noMemo.Extract("productName", node, d)

	require.True(t, ok1)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, ok1, ok3)
	assert.Equal(t, v1, v2)
	assert.Equal(t, v1, v3)
}

func TestExtract_MemoIsolatesDocumentsWithSharedPrefix(t *testing.T) {
	t.Parallel()

	// One matcher serves many documents in a batch run; documents that agree
	// on a long prefix must still be memoized independently.
	prefix := strings.Repeat("Inert filler material, not classified as hazardous.\n", 140)
	docA := prepare(prefix + "Product Name: Alpha Cleaner\n")
	docB := prepare(prefix + "Product Name: Beta Solvent\n")

	m := matcher.NewMatcher(nil, nil, nil, nil)
	node := leaf("productName", types.KindString)

	vA, okA := m.Extract("productName", node, docA)
	vB, okB := m.Extract("productName", node, docB)

	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, "Alpha Cleaner", vA)
	assert.Equal(t, "Beta Solvent", vB)
}

func TestExtract_MemoIsolatesDocumentsByTableContents(t *testing.T) {
	t.Parallel()

	text := "Section 3 Composition\n"
	rowsA := [][]string{{"CAS Number", "7681-52-9"}}
	rowsB := [][]string{{"CAS Number", "64-17-5"}}
	docA := matcher.Prepare(&types.Document{Text: text, Tables: []types.Table{{Rows: rowsA}}})
	docB := matcher.Prepare(&types.Document{Text: text, Tables: []types.Table{{Rows: rowsB}}})

	m := matcher.NewMatcher(nil, nil, nil, nil)
	node := leaf("casNumber", types.KindString)

	vA, okA := m.Extract("casNumber", node, docA)
	vB, okB := m.Extract("casNumber", node, docB)

	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, "7681-52-9", vA)
	assert.Equal(t, "64-17-5", vB)
}

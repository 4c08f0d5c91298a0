package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sdsmatch/internal/engine/schema"
	"github.com/turtacn/sdsmatch/pkg/types"
)

func TestParse_FlatInterface(t *testing.T) {
	t.Parallel()

	source := `interface SDS {
  productName: string;
  revisionNumber: number;
  flammable: boolean;
  hazardStatements: string[];
}`

	root := schema.Parse(source)
	require.NotNil(t, root)
	assert.Equal(t, types.KindObject, root.Kind)
	require.Len(t, root.Children, 4)

	assert.Equal(t, "productName", root.Children[0].Name)
	assert.Equal(t, types.KindString, root.Children[0].Kind)
	assert.Equal(t, "revisionNumber", root.Children[1].Name)
	assert.Equal(t, types.KindNumber, root.Children[1].Kind)
	assert.Equal(t, "flammable", root.Children[2].Name)
	assert.Equal(t, types.KindBoolean, root.Children[2].Kind)
	assert.Equal(t, "hazardStatements", root.Children[3].Name)
	assert.Equal(t, types.KindArray, root.Children[3].Kind)
}

func TestParse_NestedObject(t *testing.T) {
	t.Parallel()

	source := `interface SDS {
  productInfo: {
    name: string;
    manufacturer: string;
  }
  signalWord: string;
}`

	root := schema.Parse(source)
	require.Len(t, root.Children, 2)

	info := root.Children[0]
	assert.Equal(t, "productInfo", info.Name)
	assert.Equal(t, types.KindObject, info.Kind)
	require.Len(t, info.Children, 2)
	assert.Equal(t, "name", info.Children[0].Name)
	assert.Equal(t, "manufacturer", info.Children[1].Name)

	assert.Equal(t, "signalWord", root.Children[1].Name)
}

func TestParse_ArrayOfObjects(t *testing.T) {
	t.Parallel()

	source := `interface SDS {
  substances: {
    component: string;
    casNumber: string;
    concentration: string;
  }[];
}`

	root := schema.Parse(source)
	require.Len(t, root.Children, 1)

	subs := root.Children[0]
	assert.Equal(t, "substances", subs.Name)
	assert.Equal(t, types.KindArrayOfObjects, subs.Kind)
	assert.Nil(t, subs.Children)
	require.Len(t, subs.ItemSchema, 3)
	assert.Equal(t, "component", subs.ItemSchema[0].Name)
	assert.Equal(t, "casNumber", subs.ItemSchema[1].Name)
	assert.Equal(t, "concentration", subs.ItemSchema[2].Name)
}

func TestParse_DeeplyNested(t *testing.T) {
	t.Parallel()

	source := `interface SDS {
  section: {
    subsection: {
      value: number;
    }
  }
}`

	root := schema.Parse(source)
	require.Len(t, root.Children, 1)
	section := root.Children[0]
	require.Len(t, section.Children, 1)
	sub := section.Children[0]
	assert.Equal(t, "subsection", sub.Name)
	require.Len(t, sub.Children, 1)
	assert.Equal(t, "value", sub.Children[0].Name)
	assert.Equal(t, types.KindNumber, sub.Children[0].Kind)
}

func TestParse_TypeNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		declared string
		want     types.FieldKind
	}{
		{name: "lowercase string", declared: "string", want: types.KindString},
		{name: "capitalized String", declared: "String", want: types.KindString},
		{name: "lowercase number", declared: "number", want: types.KindNumber},
		{name: "capitalized Number", declared: "Number", want: types.KindNumber},
		{name: "lowercase boolean", declared: "boolean", want: types.KindBoolean},
		{name: "capitalized Boolean", declared: "Boolean", want: types.KindBoolean},
		{name: "string array", declared: "string[]", want: types.KindArray},
		{name: "number array", declared: "number[]", want: types.KindArray},
		{name: "custom type defaults to string", declared: "Date", want: types.KindString},
		{name: "any defaults to string", declared: "any", want: types.KindString},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			root := schema.Parse("field: " + tc.declared + ";")
			require.Len(t, root.Children, 1)
			assert.Equal(t, tc.want, root.Children[0].Kind)
		})
	}
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	source := `interface SDS {
  some random text without structure
  {
  productName: string;
  !!! @@@
  not a field declaration
}`

	root := schema.Parse(source)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "productName", root.Children[0].Name)
}

func TestParse_EmptyAndGarbageInput(t *testing.T) {
	t.Parallel()

	for _, source := range []string{"", "   \n \n ", "complete garbage", "}}}}", "interface X {}"} {
		root := schema.Parse(source)
		require.NotNil(t, root)
		assert.Equal(t, types.KindObject, root.Kind)
		assert.Empty(t, root.Children, "source %q", source)
	}
}

func TestParse_UnbalancedBraces(t *testing.T) {
	t.Parallel()

	// Extra closers are ignored; the tree stays usable.
	source := "productName: string;\n}\n}[]\ncasNumber: string;"
	root := schema.Parse(source)
	require.Len(t, root.Children, 2)
	assert.Equal(t, types.KindObject, root.Kind)
}

func TestParse_DuplicateFieldKeepsPosition(t *testing.T) {
	t.Parallel()

	source := `productName: string;
casNumber: string;
productName: number;`

	root := schema.Parse(source)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "productName", root.Children[0].Name)
	assert.Equal(t, types.KindNumber, root.Children[0].Kind)
	assert.Equal(t, "casNumber", root.Children[1].Name)
}

func TestParse_OptionalMarker(t *testing.T) {
	t.Parallel()

	root := schema.Parse("signalWord?: string;")
	require.Len(t, root.Children, 1)
	assert.Equal(t, "signalWord", root.Children[0].Name)
}

func TestParse_CarriageReturns(t *testing.T) {
	t.Parallel()

	root := schema.Parse("productName: string;\r\ncasNumber: string;\r\n")
	require.Len(t, root.Children, 2)
}

func TestParse_NodesCarrySearchTermsAndPriority(t *testing.T) {
	t.Parallel()

	root := schema.Parse("productName: string;\nphValue: number;")
	require.Len(t, root.Children, 2)

	name := root.Children[0]
	assert.NotEmpty(t, name.SearchTerms)
	assert.Equal(t, "productName", name.SearchTerms[0])
	assert.Equal(t, 3, name.Priority)

	ph := root.Children[1]
	assert.Equal(t, 1, ph.Priority)
}

func TestParse_Deterministic(t *testing.T) {
	t.Parallel()

	source := `interface SDS {
  productName: string;
  substances: {
    component: string;
    casNumber: string;
  }[];
  signalWord: string;
}`

	first := schema.Parse(source)
	second := schema.Parse(source)
	assert.Equal(t, first, second)
}

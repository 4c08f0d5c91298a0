package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sdsmatch/internal/engine/schema"
)

func TestGenerateSearchTerms_LiteralFirst(t *testing.T) {
	t.Parallel()

	terms := schema.GenerateSearchTerms("productName")
	require.NotEmpty(t, terms)
	assert.Equal(t, "productName", terms[0])
}

func TestGenerateSearchTerms_CamelCaseVariants(t *testing.T) {
	t.Parallel()

	terms := schema.GenerateSearchTerms("productName")
	assert.Contains(t, terms, "product Name")
	assert.Contains(t, terms, "product name")
	assert.Contains(t, terms, "PRODUCT NAME")
	assert.Contains(t, terms, "Product Name")
	assert.Contains(t, terms, "product-name")
	assert.Contains(t, terms, "product_name")
}

func TestGenerateSearchTerms_SeparatorVariants(t *testing.T) {
	t.Parallel()

	terms := schema.GenerateSearchTerms("cas_number")
	assert.Contains(t, terms, "cas number")
	assert.Contains(t, terms, "CAS_NUMBER")
}

func TestGenerateSearchTerms_SemanticExpansion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field string
		wants []string
	}{
		{
			name:  "cas gains registry forms",
			field: "casNumber",
			wants: []string{"cas number", "cas no", "cas-no", "cas registry number"},
		},
		{
			name:  "manufacturer gains supplier",
			field: "manufacturer",
			wants: []string{"supplier", "company", "producer", "vendor"},
		},
		{
			name:  "hazard gains danger",
			field: "hazardStatements",
			wants: []string{"hazard statements", "h-statements", "danger"},
		},
		{
			name:  "component gains substance",
			field: "component",
			wants: []string{"substance", "ingredient", "chemical"},
		},
		{
			name:  "signal word",
			field: "signalWord",
			wants: []string{"signal word", "signal", "warning word"},
		},
		{
			name:  "chemical name gains component",
			field: "chemicalName",
			wants: []string{"substance", "component", "ingredient"},
		},
		{
			name:  "weight percent gains concentration",
			field: "weightPercent",
			wants: []string{"concentration", "mass", "percentage"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			terms := schema.GenerateSearchTerms(tc.field)
			for _, want := range tc.wants {
				assert.Contains(t, terms, want)
			}
		})
	}
}

func TestGenerateSearchTerms_NoDuplicates(t *testing.T) {
	t.Parallel()

	terms := schema.GenerateSearchTerms("name")
	seen := make(map[string]int)
	for _, term := range terms {
		seen[term]++
	}
	for term, count := range seen {
		assert.Equal(t, 1, count, "term %q appears %d times", term, count)
	}
}

func TestGenerateSearchTerms_NoEmptyTerms(t *testing.T) {
	t.Parallel()

	for _, field := range []string{"productName", "cas", "x", "weight_percent"} {
		for _, term := range schema.GenerateSearchTerms(field) {
			assert.NotEmpty(t, term)
		}
	}
}

func TestFieldPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field string
		want  int
	}{
		{field: "productName", want: 3},
		{field: "name", want: 3},
		{field: "manufacturer", want: 3},
		{field: "supplierAddress", want: 3},
		{field: "casNumber", want: 2},
		{field: "component", want: 2},
		{field: "hazardStatements", want: 2},
		{field: "version", want: 2},
		{field: "phValue", want: 1},
		{field: "flashPoint", want: 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.field, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, schema.FieldPriority(tc.field))
		})
	}
}

package mapper_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sdsmatch/internal/engine/mapper"
	"github.com/turtacn/sdsmatch/internal/engine/schema"
	"github.com/turtacn/sdsmatch/pkg/types"
)

func newMapper() *mapper.Mapper {
	return mapper.NewMapper(nil, nil)
}

func TestMap_EmptySchema(t *testing.T) {
	mp := newMapper()

	result := mp.Map(schema.Parse(""), &types.Document{Text: "Product Name: Acme"})

	require.NotNil(t, result)
	assert.Empty(t, result)
}

func TestMap_NilSchema(t *testing.T) {
	mp := newMapper()

	result := mp.Map(nil, &types.Document{Text: "Product Name: Acme"})

	require.NotNil(t, result)
	assert.Empty(t, result)
}

func TestMap_EmptyDocumentFillsDefaults(t *testing.T) {
	mp := newMapper()
	node := schema.Parse(`interface Product {
  productName: string;
  count: number;
  flag: boolean;
  items: string[];
}`)

	result := mp.Map(node, &types.Document{})

	want := types.Result{
		"productName": "",
		"count":       float64(0),
		"flag":        false,
		"items":       []interface{}{},
	}
	assert.Equal(t, want, result)
}

func TestMap_ShapeMirrorsSchema(t *testing.T) {
	mp := newMapper()
	node := schema.Parse(`interface SDS {
  productName: string;
  hazard: {
    signalWord: string;
    flammable: boolean;
  }
  ingredients: {
    chemicalName: string;
    casNumber: string;
  }[]
}`)

	result := mp.Map(node, &types.Document{Text: "unrelated text with no fields"})

	require.Contains(t, result, "productName")
	require.Contains(t, result, "hazard")
	require.Contains(t, result, "ingredients")

	hazard, ok := result["hazard"].(types.Result)
	require.True(t, ok, "nested object stays an object")
	assert.Contains(t, hazard, "signalWord")
	assert.Contains(t, hazard, "flammable")

	rows, ok := result["ingredients"].([]interface{})
	require.True(t, ok, "array-of-objects stays a list")
	assert.Empty(t, rows)
}

func TestMap_NestedObjectValues(t *testing.T) {
	mp := newMapper()
	node := schema.Parse(`interface SDS {
  productName: string;
  hazard: {
    signalWord: string;
  }
}`)
	doc := &types.Document{Text: "Product Name: XXXXX Regular-Bleach\nSignal Word: Danger\n"}

	result := mp.Map(node, doc)

	assert.Equal(t, "XXXXX Regular-Bleach", result["productName"])
	hazard := result["hazard"].(types.Result)
	assert.Equal(t, "Danger", hazard["signalWord"])
}

func TestMap_Idempotent(t *testing.T) {
	mp := newMapper()
	node := schema.Parse(`interface SDS {
  productName: string;
  phValue: number;
  ingredients: {
    chemicalName: string;
    casNumber: string;
    weightPercent: string;
  }[]
}`)
	doc := &types.Document{Text: `Product Name: XXXXX Regular-Bleach
pH: 12.5
Sodium hypochlorite 7681-52-9 5 - 10
`}

	first, err := json.Marshal(mp.Map(node, doc))
	require.NoError(t, err)
	second, err := json.Marshal(mp.Map(node, doc))
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must serialize identically")
}

func TestMapWithStats_CountsLeaves(t *testing.T) {
	mp := newMapper()
	node := schema.Parse(`interface SDS {
  productName: string;
  hazard: {
    signalWord: string;
  }
  missing: string;
}`)
	doc := &types.Document{Text: "Product Name: Acme Cleaner\nSignal Word: Warning\n"}

	result, stats := mp.MapWithStats(node, doc)

	require.Len(t, result, 3)
	assert.Equal(t, 3, stats.LeafFields)
	assert.Equal(t, 2, stats.MatchedFields)
}

package contextbuilder

import (
	"strings"
	"testing"

	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildContext_AcmeDeal(t *testing.T) {
	canvas := &models.Canvas{ID: "c1", Name: "Acme Deal"}
	nodes := []models.Node{{
		Title:    "Jane Doe",
		NodeType: "person",
		Data:     models.NodeData{"role": models.StringValue("CISO")},
	}}

	out := BuildContext(canvas, nodes)

	assert.Contains(t, out, "Acme Deal")
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "role: CISO")
	assert.Contains(t, out, "### Jane Doe (person)")
	assert.NotContains(t, out, EmptyCanvasMarker)
}

func TestBuildContext_Description(t *testing.T) {
	desc := "Renewal plus expansion"
	out := BuildContext(&models.Canvas{Name: "Acme Deal", Description: &desc}, nil)
	assert.Contains(t, out, "Description: Renewal plus expansion")

	blank := "   "
	out = BuildContext(&models.Canvas{Name: "Acme Deal", Description: &blank}, nil)
	assert.NotContains(t, out, "Description:")
}

func TestBuildContext_ExcludedNodesNeverAppear(t *testing.T) {
	canvas := &models.Canvas{Name: "Acme Deal"}
	nodes := []models.Node{
		{Title: "Secret Sauce", NodeType: "document", ExcludeFromContext: true,
			Data: models.NodeData{"pricing": models.StringValue("40% discount")}},
		{Title: "Jane Doe", NodeType: "person"},
	}

	out := BuildContext(canvas, nodes)

	assert.NotContains(t, out, "Secret Sauce")
	assert.NotContains(t, out, "40% discount")
	assert.Contains(t, out, "Jane Doe")
}

func TestBuildContext_EmptyMarker(t *testing.T) {
	canvas := &models.Canvas{Name: "Acme Deal"}

	t.Run("no nodes", func(t *testing.T) {
		out := BuildContext(canvas, nil)
		assert.NotEmpty(t, out)
		assert.Contains(t, out, EmptyCanvasMarker)
	})

	t.Run("all nodes excluded", func(t *testing.T) {
		out := BuildContext(canvas, []models.Node{
			{Title: "Hidden", NodeType: "generic", ExcludeFromContext: true},
			{Title: "Also hidden", NodeType: "generic", ExcludeFromContext: true},
		})
		assert.Contains(t, out, EmptyCanvasMarker)
		assert.NotContains(t, out, "Hidden")
	})
}

func TestBuildContext_OnlyNonBlankStringsSurface(t *testing.T) {
	canvas := &models.Canvas{Name: "Acme Deal"}
	nodes := []models.Node{{
		Title:    "Kickoff",
		NodeType: "meeting",
		Data: models.NodeData{
			"summary":   models.StringValue("Agreed on pilot"),
			"blank":     models.StringValue("   "),
			"attendees": models.ListValue(models.StringValue("Jane")),
			"details":   models.MapValue(map[string]models.Value{"room": models.StringValue("4B")}),
			"duration":  models.NumberValue(45),
			"recorded":  models.BoolValue(true),
			"nothing":   {},
		},
	}}

	out := BuildContext(canvas, nodes)

	assert.Contains(t, out, "summary: Agreed on pilot")
	for _, key := range []string{"blank", "attendees", "details", "duration", "recorded", "nothing"} {
		assert.NotContains(t, out, key+":")
	}
}

func TestBuildContext_Deterministic(t *testing.T) {
	canvas := &models.Canvas{Name: "Acme Deal"}
	nodes := []models.Node{
		{Title: "B", NodeType: "generic", Data: models.NodeData{"z": models.StringValue("1"), "a": models.StringValue("2"), "m": models.StringValue("3")}},
		{Title: "A", NodeType: "generic"},
	}

	first := BuildContext(canvas, nodes)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, BuildContext(canvas, nodes))
	}

	assert.Less(t, strings.Index(first, "### B"), strings.Index(first, "### A"), "node order is preserved")
	assert.Less(t, strings.Index(first, "a: 2"), strings.Index(first, "m: 3"))
	assert.Less(t, strings.Index(first, "m: 3"), strings.Index(first, "z: 1"))
}

func TestBuildNodeContext(t *testing.T) {
	canvas := &models.Canvas{Name: "Acme Deal"}
	node := &models.Node{Title: "Jane Doe", NodeType: "person", Data: models.NodeData{"role": models.StringValue("CISO")}}

	out := BuildNodeContext(canvas, node)
	assert.Contains(t, out, "role: CISO")

	node.ExcludeFromContext = true
	assert.Contains(t, BuildNodeContext(canvas, node), EmptyCanvasMarker)
	assert.Contains(t, BuildNodeContext(canvas, nil), EmptyCanvasMarker)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}

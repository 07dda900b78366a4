// Package contextbuilder renders a canvas and its nodes into the plain-text context
// handed to the completion provider. Rendering is a pure function of its inputs.
package contextbuilder

import (
	"strings"
	"unicode/utf8"

	"github.com/natebrady-cyera/deep-thought/internal/db/models"
)

// EmptyCanvasMarker is emitted when no node is eligible for context.
const EmptyCanvasMarker = "*(No nodes yet - empty canvas)*"

// BuildContext renders the canvas header followed by one section per node, in the
// order given. Nodes excluded from context are skipped without a placeholder. Only
// data values that are non-blank strings are rendered, as "key: value" lines in
// key order.
func BuildContext(canvas *models.Canvas, nodes []models.Node) string {
	var b strings.Builder

	b.WriteString("# Deal Canvas: ")
	b.WriteString(canvas.Name)
	b.WriteString("\n\n")
	if canvas.Description != nil && strings.TrimSpace(*canvas.Description) != "" {
		b.WriteString("Description: ")
		b.WriteString(*canvas.Description)
		b.WriteString("\n\n")
	}

	b.WriteString("## Canvas Contents\n\n")

	written := 0
	for i := range nodes {
		if nodes[i].ExcludeFromContext {
			continue
		}
		writeNode(&b, &nodes[i])
		written++
	}
	if written == 0 {
		b.WriteString(EmptyCanvasMarker)
		b.WriteString("\n")
	}

	return b.String()
}

// BuildNodeContext renders the canvas header and a single node, for chats scoped
// to that node. An excluded node yields the empty-canvas marker.
func BuildNodeContext(canvas *models.Canvas, node *models.Node) string {
	if node == nil {
		return BuildContext(canvas, nil)
	}
	return BuildContext(canvas, []models.Node{*node})
}

func writeNode(b *strings.Builder, node *models.Node) {
	b.WriteString("### ")
	b.WriteString(node.Title)
	b.WriteString(" (")
	b.WriteString(node.NodeType)
	b.WriteString(")\n")

	for _, key := range node.Data.Keys() {
		value, ok := node.Data[key].AsString()
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// EstimateTokens approximates the token count of text at four characters per token.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

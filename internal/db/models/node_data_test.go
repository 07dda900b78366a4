package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_UnmarshalJSON(t *testing.T) {
	var d NodeData
	err := json.Unmarshal([]byte(`{
		"name": "Jane",
		"score": 4.5,
		"champion": true,
		"notes": null,
		"tags": ["ciso", 3],
		"address": {"city": "Austin"}
	}`), &d)
	require.NoError(t, err)

	s, ok := d["name"].AsString()
	assert.True(t, ok)
	assert.Equal(t, "Jane", s)

	n, ok := d["score"].AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 4.5, n)

	b, ok := d["champion"].AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	assert.Equal(t, KindNull, d["notes"].Kind())
	assert.Equal(t, KindList, d["tags"].Kind())
	assert.Len(t, d["tags"].List(), 2)
	assert.Equal(t, KindMap, d["address"].Kind())
	city, _ := d["address"].Map()["city"].AsString()
	assert.Equal(t, "Austin", city)

	_, ok = d["name"].AsNumber()
	assert.False(t, ok)
	assert.Nil(t, d["name"].List())
	assert.Nil(t, d["name"].Map())
}

func TestNodeData_KeysSorted(t *testing.T) {
	d := NodeData{"zeta": StringValue("z"), "alpha": StringValue("a"), "mid": NumberValue(1)}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, d.Keys())
}

func TestNodeData_DatabaseValue(t *testing.T) {
	var nilData NodeData
	v, err := nilData.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	d := NodeData{"count": NumberValue(3), "empty": ListValue()}
	v, err = d.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3,"empty":[]}`, v.(string))

	var scanned NodeData
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	n, _ := scanned["count"].AsNumber()
	assert.Equal(t, 3.0, n)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestRecomputeContentSize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		data  NodeData
		want  int
	}{
		{name: "title only", title: "Jane Doe", want: 8},
		{name: "unicode counts characters", title: "Zoë", want: 3},
		{
			name:  "strings add their length",
			title: "Kickoff",
			data:  NodeData{"notes": StringValue("agreed on pilot")},
			want:  7 + 15,
		},
		{
			name:  "numbers and bools ignored",
			title: "Opp",
			data:  NodeData{"amount": NumberValue(125000), "closed": BoolValue(false), "gone": {}},
			want:  3,
		},
		{
			name:  "lists and maps count their JSON",
			title: "",
			data: NodeData{
				"tags": ListValue(StringValue("a"), NumberValue(1)),
				"meta": MapValue(map[string]Value{"k": StringValue("v")}),
			},
			want: len(`["a",1]`) + len(`{"k":"v"}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Node{Title: tt.title, Data: tt.data}
			n.RecomputeContentSize()
			assert.Equal(t, tt.want, n.ContentSize)
		})
	}
}

func TestIsKnownNodeType(t *testing.T) {
	assert.True(t, IsKnownNodeType(NodeTypeMeeting))
	assert.True(t, IsKnownNodeType("support_issue"))
	assert.False(t, IsKnownNodeType("opportunity"))
	assert.False(t, IsKnownNodeType(""))
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/uptrace/bun"
)

// NodeStatus carries client-facing warnings and indicators. The server does not interpret it.
type NodeStatus map[string]any

// Scan implements sql.Scanner for reading from database
func (s *NodeStatus) Scan(value any) error {
	return scanJSON(value, s, "NodeStatus")
}

// Value implements driver.Valuer for writing to database
func (s NodeStatus) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Node is a positioned unit of deal information on a canvas.
type Node struct {
	bun.BaseModel `bun:"table:nodes,alias:n"`

	ID                 string     `bun:"id,pk,type:uuid" json:"id"`
	CanvasID           string     `bun:"canvas_id,notnull,type:uuid" json:"canvas_id"`
	NodeType           string     `bun:"node_type,notnull" json:"node_type"`
	Title              string     `bun:"title,notnull" json:"title"`
	PositionX          float64    `bun:"position_x,notnull,default:0" json:"position_x"`
	PositionY          float64    `bun:"position_y,notnull,default:0" json:"position_y"`
	Width              *int       `bun:"width" json:"width"`
	Height             *int       `bun:"height" json:"height"`
	Data               NodeData   `bun:"data,type:jsonb,notnull" json:"data"`
	ExcludeFromContext bool       `bun:"exclude_from_context,notnull,default:false" json:"exclude_from_context"`
	ContentSize        int        `bun:"content_size,notnull,default:0" json:"content_size"`
	Status             NodeStatus `bun:"status,type:jsonb" json:"status"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// RecomputeContentSize refreshes ContentSize from Title and Data.
// Strings count their characters; lists and maps count the characters of their
// JSON rendering. Numbers, bools and nulls do not contribute.
func (n *Node) RecomputeContentSize() {
	size := utf8.RuneCountInString(n.Title)
	for _, v := range n.Data {
		switch v.Kind() {
		case KindString:
			s, _ := v.AsString()
			size += utf8.RuneCountInString(s)
		case KindList, KindMap:
			b, err := json.Marshal(v)
			if err == nil {
				size += utf8.RuneCount(b)
			}
		}
	}
	n.ContentSize = size
}

// Node types offered to clients.
const (
	NodeTypePerson         = "person"
	NodeTypeMeeting        = "meeting"
	NodeTypeDocument       = "document"
	NodeTypeSalesforce     = "salesforce"
	NodeTypeFeatureRequest = "feature_request"
	NodeTypeSupportIssue   = "support_issue"
	NodeTypeGeneric        = "generic"
)

// NodeTypeInfo describes one entry of the node type catalogue.
type NodeTypeInfo struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// NodeTypes is the catalogue returned to clients, in display order.
var NodeTypes = []NodeTypeInfo{
	{NodeTypePerson, "Person", "A stakeholder or contact on the deal"},
	{NodeTypeMeeting, "Meeting", "Notes or a transcript from a meeting"},
	{NodeTypeDocument, "Document", "An uploaded or linked document"},
	{NodeTypeSalesforce, "Salesforce", "Opportunity data synced from Salesforce"},
	{NodeTypeFeatureRequest, "Feature Request", "A product capability the customer asked for"},
	{NodeTypeSupportIssue, "Support Issue", "An open or historical support case"},
	{NodeTypeGeneric, "Generic", "Free-form notes"},
}

// IsKnownNodeType reports whether t appears in the catalogue.
func IsKnownNodeType(t string) bool {
	for _, info := range NodeTypes {
		if info.Type == t {
			return true
		}
	}
	return false
}

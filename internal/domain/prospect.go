package domain

import "time"

// PathKind classifies how a connector reaches a target person.
type PathKind string

const (
	PathCurrentEmployee PathKind = "current-employee"
	PathFormerEmployee  PathKind = "former-employee"
	PathAlumni          PathKind = "alumni"
	PathAISuggested     PathKind = "ai-suggested"
)

// ConnectionPath is a candidate human route from an owned contact (the
// connector) to a person at a target company. Strength is in [0,1].
// Ephemeral per scoring request; only the top-N are persisted on the prospect.
type ConnectionPath struct {
	ConnectorID   string   `json:"connector_id,omitempty"`
	ConnectorName string   `json:"connector_name"`
	TargetName    string   `json:"target_name,omitempty"`
	TargetTitle   string   `json:"target_title,omitempty"`
	Kind          PathKind `json:"kind"`
	Strength      float64  `json:"strength"`
	SharedContext string   `json:"shared_context,omitempty"`
}

// Prospect is a target company under evaluation. Created by prospect
// discovery; the scoring run mutates the connection fields whenever paths are
// recomputed.
type Prospect struct {
	ID            string
	TeamID        string
	CompanyName   string
	CompanyDomain string

	ConnectionScore   int
	BestConnectorName string
	PathCount         int
	TopPaths          []ConnectionPath
	ScoredAt          time.Time
}

// RelevanceMatch is one row of the AI matcher's ranked output: an owned
// contact the model considers relevant to a target company.
type RelevanceMatch struct {
	Name           string
	MatchType      PathKind
	RelevanceScore int
	Reasoning      string
}

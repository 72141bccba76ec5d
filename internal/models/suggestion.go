package models

// Suggestion sources, in tie-break priority order.
const (
	SuggestionContent = "content"
	SuggestionHistory = "history"
	SuggestionRecent  = "recent"
)

// Suggestion is an ephemeral ranked autocomplete candidate. Never persisted;
// cached briefly per (owner, normalized partial query).
type Suggestion struct {
	Text      string  `json:"text"`
	Type      string  `json:"type"`
	Source    string  `json:"source,omitempty"`
	Frequency int     `json:"frequency"`
	Relevance float64 `json:"relevance_score"`
}

// SourcePriority orders suggestion types for final tie-breaking:
// content > history > recent.
func SourcePriority(typ string) int {
	switch typ {
	case SuggestionContent:
		return 3
	case SuggestionHistory:
		return 2
	case SuggestionRecent:
		return 1
	}
	return 0
}

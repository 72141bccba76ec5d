package queue

const (
	TypeDocumentReindex = "document:reindex"
	TypeHistoryPurge    = "history:purge"
)

type DocumentReindexPayload struct {
	OwnerID string `json:"owner_id"`
	// Force rebuilds chunks even when the content hash is unchanged,
	// for chunking parameter changes.
	Force bool `json:"force"`
}

type HistoryPurgePayload struct {
	// RetentionDays is how many days of history to keep.
	RetentionDays int `json:"retention_days"`
}

package entity

import "time"

// KnowledgeDocument is an append-only unit pushed to the external knowledge base.
type KnowledgeDocument struct {
	Name            string
	Text            string
	KnowledgeBaseID string
	CreatedAt       time.Time
}

type EntryType string

const (
	EntryFact EntryType = "fact"
	EntryQA   EntryType = "qa"
	EntryMenu EntryType = "menu"
)

// KnowledgeEntry is one line of the JSONL knowledge export.
type KnowledgeEntry struct {
	ID     string    `json:"id"`
	Type   EntryType `json:"type"`
	Text   string    `json:"text"`
	Tags   []string  `json:"tags"`
	Source string    `json:"source,omitempty"`
}

package models

import "time"

// Step is the position of a sender inside a multi-turn request.
type Step string

const (
	StepAwaitingDesignNumber   Step = "awaiting_design_number"
	StepAwaitingColor          Step = "awaiting_color"
	StepAwaitingDocumentNumber Step = "awaiting_document_number"
	StepAwaitingRequestType    Step = "awaiting_request_type"
)

// RequestType is the document category a sender asked for.
type RequestType string

const (
	RequestDesign  RequestType = "design"
	RequestInvoice RequestType = "invoice"
	RequestPTFile  RequestType = "pt"
	RequestLRImage RequestType = "lr"
)

// Session stores temporary per-sender state for WhatsApp conversations.
// It is created on the first turn of a multi-step request, mutated across
// turns and deleted on every terminal outcome. Memory-resident only - lost
// on process restart.
type Session struct {
	Phone        string         `json:"phone"`
	Step         Step           `json:"step"`
	Request      RequestType    `json:"request"`
	Column       DocumentColumn `json:"column"`
	DesignNumber string         `json:"design_number"`
	PendingKey   string         `json:"pending_key"`
	Colors       []string       `json:"colors"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

package api

import (
	"github.com/starford/quicknote/internal/history"
	"github.com/starford/quicknote/internal/noteservice"
)

// QueryRequest is the request body for preview and note submission.
type QueryRequest struct {
	Query string `json:"query" example:"Groceries buy milk !Inbox" validate:"required"`
}

// Preview is the launcher row response (aliased from the domain layer).
type Preview = noteservice.Preview

// Run is a completed invocation (aliased from the domain layer).
type Run = noteservice.Run

// DispatchResponse is returned when a run is accepted for background execution.
type DispatchResponse struct {
	ID string `json:"id" example:"01J9Z3QG7T8V5W2X4Y6Z8A0B1C" validate:"required"`
}

// HistoryResponse wraps recorded runs.
type HistoryResponse struct {
	Runs []history.Run `json:"runs" validate:"required"`
}

package dto

import (
	"encoding/json"

	"github.com/noah-isme/uni-portal-api/internal/models"
)

// CreateTranscriptRequest is the payload for opening a transcript request.
type CreateTranscriptRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// RejectTranscriptRequest carries the mandatory rejection reason.
type RejectTranscriptRequest struct {
	Reason string `json:"reason"`
}

// TranscriptQuery constrains request listings.
type TranscriptQuery struct {
	StudentID string
	Status    models.TranscriptStatus
	Limit     int
	Offset    int
}

// TranscriptRequestResponse is a request plus, when released, its frozen
// snapshot body.
type TranscriptRequestResponse struct {
	models.TranscriptRequest
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}

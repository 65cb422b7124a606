package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// ExecutionRow mirrors the workflow_executions BigQuery schema.
type ExecutionRow struct {
	ItemID              string               `bigquery:"item_id"`
	OwnerID             string               `bigquery:"owner_id"`
	ExecutionRef        string               `bigquery:"execution_ref"`
	Profile             string               `bigquery:"profile"`
	FinalState          string               `bigquery:"final_state"`
	PollCount           int64                `bigquery:"poll_count"`
	PromptFallback      bool                 `bigquery:"prompt_fallback"`
	TranscriptionMillis int64                `bigquery:"transcription_ms"`
	PromptMillis        int64                `bigquery:"prompt_ms"`
	ImageMillis         int64                `bigquery:"image_ms"`
	FinalizeMillis      int64                `bigquery:"finalize_ms"`
	TotalMillis         int64                `bigquery:"total_ms"`
	Error               cbigquery.NullString `bigquery:"error"`
	StartedAt           time.Time            `bigquery:"started_at"`
	FinishedAt          time.Time            `bigquery:"finished_at"`
}

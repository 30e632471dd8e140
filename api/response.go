package api

// Non-streaming summary of a whole run, printed with --json and stored
// in the result cache.

type Status string

const (
	Success       Status = "success"
	InternalError Status = "internal_error"
)

// BatchResult is the merged outcome of one program on one batch
type BatchResult struct {
	Batch   string `json:"batch"`
	Verdict string `json:"verdict"`
	// MaxMillis is the slowest run of the batch, -1 without timing
	MaxMillis int64 `json:"max_ms"`
	Failed    bool  `json:"failed"`
}

type ProgramResult struct {
	Name      string        `json:"name"`
	RunCmd    string        `json:"run_cmd"`
	Validator bool          `json:"validator"`
	Verdict   string        `json:"verdict"`
	MaxMillis int64         `json:"max_ms"`
	SumMillis int64         `json:"sum_ms"`
	Points    int           `json:"points"`
	MaxPoints int           `json:"max_points"`
	Batches   []BatchResult `json:"batches"`
}

type Summary struct {
	RunID    string          `json:"run_id"`
	Status   Status          `json:"status"`
	Programs []ProgramResult `json:"programs"`

	// Overall error message (for internal errors)
	ErrorMessage *string `json:"error_message,omitempty"`

	StartTime   string `json:"start_time"`
	FinishTime  string `json:"finish_time"`
	TotalTimeMs int64  `json:"total_time_ms"`
}

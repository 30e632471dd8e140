package api

import "time"

// MsgType is a message type for streaming events
type MsgType string

const (
	StartJobMsg   MsgType = "job_start"
	ReachInputMsg MsgType = "input_reach"
	StartUnitMsg  MsgType = "unit_start"
	FinishUnitMsg MsgType = "unit_finish"
	IgnoreUnitMsg MsgType = "unit_ignore"
	FinishJobMsg  MsgType = "job_finish"
)

// Header is the common header for all streamed messages
type Header struct {
	RunID   string  `json:"run_id"`
	MsgType MsgType `json:"msg_type"`
}

// Timing of one program run. CPU fields are nil when the time tool
// is unavailable.
type Timing struct {
	WallMillis   int64  `json:"wall_ms"`
	UserMillis   *int64 `json:"user_ms,omitempty"`
	SystemMillis *int64 `json:"sys_ms,omitempty"`
}

type StartJob struct {
	Header
	Programs    []string `json:"programs"`
	Inputs      []string `json:"inputs"`
	Threads     int      `json:"threads"`
	StartedTime string   `json:"started_time"`
}

type ReachInput struct {
	Header
	Input    string `json:"input"`
	Creating bool   `json:"creating"`
}

// Unit identifies one program run on one input
type Unit struct {
	Program string `json:"program"`
	Input   string `json:"input"`
	Batch   string `json:"batch"`
}

type StartUnit struct {
	Header
	Unit
}

type IgnoreUnit struct {
	Header
	Unit
}

type FinishUnit struct {
	Header
	Unit
	Verdict string  `json:"verdict"`
	Timing  *Timing `json:"timing,omitempty"`
}

// FinishJob message sent when the run completes or aborts
type FinishJob struct {
	Header
	ErrorMessage  *string  `json:"error_message"`
	InternalError bool     `json:"internal_error"`
	Summary       *Summary `json:"summary,omitempty"`
}

func NewHeader(runID string, msgType MsgType) Header {
	return Header{
		RunID:   runID,
		MsgType: msgType,
	}
}

func NewStartJob(runID string, programs, inputs []string, threads int) StartJob {
	return StartJob{
		Header:      NewHeader(runID, StartJobMsg),
		Programs:    programs,
		Inputs:      inputs,
		Threads:     threads,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewReachInput(runID, input string, creating bool) ReachInput {
	return ReachInput{
		Header:   NewHeader(runID, ReachInputMsg),
		Input:    input,
		Creating: creating,
	}
}

func NewStartUnit(runID string, unit Unit) StartUnit {
	return StartUnit{Header: NewHeader(runID, StartUnitMsg), Unit: unit}
}

func NewIgnoreUnit(runID string, unit Unit) IgnoreUnit {
	return IgnoreUnit{Header: NewHeader(runID, IgnoreUnitMsg), Unit: unit}
}

func NewFinishUnit(runID string, unit Unit, verdict string, timing *Timing) FinishUnit {
	return FinishUnit{
		Header:  NewHeader(runID, FinishUnitMsg),
		Unit:    unit,
		Verdict: verdict,
		Timing:  timing,
	}
}

func NewFinishJob(runID string, errorMessage *string, internalError bool, summary *Summary) FinishJob {
	return FinishJob{
		Header:        NewHeader(runID, FinishJobMsg),
		ErrorMessage:  errorMessage,
		InternalError: internalError,
		Summary:       summary,
	}
}

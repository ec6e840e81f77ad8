package domain

import "time"

// EncodedRow pairs an input label with its one-hot code
type EncodedRow struct {
	Label string `json:"label"`
	Code  []int  `json:"code"`
}

// RunKind identifies which exercise produced a run
type RunKind string

const (
	KindEncode RunKind = "encode"
	KindYear   RunKind = "year"
)

// Run is a recorded invocation of one of the exercises
type Run struct {
	ID        string    `json:"id"`
	Kind      RunKind   `json:"kind"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"created_at"`
}

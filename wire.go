package testopt

import "fmt"

// Shared request shapes for tag and error operations. The id field carries
// whichever entity identifier the operation targets.
type tagRequest struct {
	ID    uint64 `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type numberTagRequest struct {
	ID    uint64  `json:"id"`
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

type errorRequest struct {
	ID         uint64 `json:"id"`
	Type       string `json:"error_type"`
	Message    string `json:"error_message"`
	Stacktrace string `json:"error_stacktrace"`
}

func errRuntimeRejected(name string) error {
	return fmt.Errorf("runtime rejected %s", name)
}

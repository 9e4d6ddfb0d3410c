package domain

import "fmt"

// OperationRequest asks the master actor to run a named operation.
// The response is delivered as OperationResponse.
type OperationRequest struct {
	ActorRequestMixIn
	Name string
	Args map[string]any
}

type OperationResponse struct {
	ActorResponseMixIn
	Name   string
	Result OperationResult
}

// OperationResult is what every named operation returns: a human-readable
// message, plus the raw value for the few queries that return numbers.
type OperationResult struct {
	Text  string `json:"text,omitempty"`
	Value any    `json:"value,omitempty"`
}

func TextResult(format string, args ...any) OperationResult {
	if len(args) == 0 {
		return OperationResult{Text: format}
	}
	return OperationResult{Text: fmt.Sprintf(format, args...)}
}

func ValueResult(v any) OperationResult {
	return OperationResult{Value: v}
}

func (r OperationResult) String() string {
	if r.Value != nil {
		return fmt.Sprint(r.Value)
	}
	return r.Text
}

type OperationInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Args        []string `json:"args,omitempty"`
	ReadOnly    bool     `json:"read_only"`
}

package llm

import "fmt"

// APICallError represents a transport or provider failure.
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("LLM API error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("LLM API error: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ResponseError represents an empty, malformed or non-JSON response.
type ResponseError struct {
	Message string
	Cause   error
}

func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("LLM response error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("LLM response error: %s", e.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

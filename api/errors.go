package api

import "errors"

// MissingPromptMessage is the client-facing error for unusable request bodies.
const MissingPromptMessage = "Missing prompt in request body"

// ErrValidation is returned for request bodies that are malformed or carry
// no prompt.
var ErrValidation = errors.New("invalid request")

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func errorBody(msg string) ErrorResponse {
	return ErrorResponse{Success: false, Error: msg}
}

// internal/models/response.go
package models

// MessageStatus tags a response for presentation.
type MessageStatus string

const (
	MessageNeutral MessageStatus = ""
	MessageSuccess MessageStatus = "success"
	MessageError   MessageStatus = "error"
	MessageWarning MessageStatus = "warning"
)

// Response is one chat message emitted to the applicant.
type Response struct {
	Content string        `json:"content"`
	Status  MessageStatus `json:"status,omitempty"`
}

// Say builds a neutral response.
func Say(content string) Response {
	return Response{Content: content}
}

// Warn builds a recoverable-input response; the stage is left unchanged.
func Warn(content string) Response {
	return Response{Content: content, Status: MessageWarning}
}

// Fail builds an error-status response.
func Fail(content string) Response {
	return Response{Content: content, Status: MessageError}
}

// Succeed builds a success-status response.
func Succeed(content string) Response {
	return Response{Content: content, Status: MessageSuccess}
}

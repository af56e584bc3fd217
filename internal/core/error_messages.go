package core

// error_messages.go maps request-level errors to user-facing messages.
//
// Each message carries a code support staff can look up:
//
//	FILE001  unsupported file type (only .csv, .xls, .xlsx)
//	FILE002  file could not be parsed
//	FILE004  no file in the request
//	FILE005  file exceeds the size limit
//	IMP001   unknown import endpoint
//	IMP002   too many imports running
//	IMP003   import cancelled by the client
//	IMP004   import timed out
//	DB001    store unreachable
//	DB002    store timed out
//	ERR000   anything else
//
// Sentinel errors are matched with errors.Is first. Errors coming from
// drivers are matched by lowercase substring; the first pattern wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoFile and ErrFileTooLarge are raised by transports before Import runs.
var (
	ErrNoFile       = errors.New("no file provided")
	ErrFileTooLarge = errors.New("file too large")
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrUnsupportedFormat, UserMessage{
		Message: "Unsupported file type",
		Action:  "Upload a .csv, .xls or .xlsx file",
		Code:    "FILE001",
	}},
	{ErrParse, UserMessage{
		Message: "The file could not be read",
		Action:  "Check the file is a valid CSV, .xls or .xlsx workbook",
		Code:    "FILE002",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Attach the file in the 'file' form field",
		Code:    "FILE004",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE005",
	}},
	{ErrUnknownEndpoint, UserMessage{
		Message: "Unknown import type",
		Action:  "Use one of the endpoints listed at /api/import/endpoints",
		Code:    "IMP001",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "The system is busy with other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
	}},
	{context.Canceled, UserMessage{
		Message: "The import was cancelled",
		Action:  "Start the import again when ready",
		Code:    "IMP003",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "The import timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "IMP004",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"connection refused", UserMessage{
		Message: "Unable to connect to the document store",
		Action:  "Please try again in a few moments",
		Code:    "DB001",
	}},
	{"server selection", UserMessage{
		Message: "Unable to connect to the document store",
		Action:  "Please try again in a few moments",
		Code:    "DB001",
	}},
	{"timeout", UserMessage{
		Message: "The document store timed out",
		Action:  "Please try again later",
		Code:    "DB002",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the user message for err. A nil error maps to the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as a single user-facing line.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsClientError reports whether err was caused by the request rather than
// by the server.
func IsClientError(err error) bool {
	switch MapError(err).Code {
	case "FILE001", "FILE002", "FILE004", "FILE005", "IMP001":
		return true
	default:
		return false
	}
}

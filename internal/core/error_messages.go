package core

// error_messages.go maps technical errors to user-facing messages with a code
// for support reference.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the file or remove unused sheets
//	FILE002 - Invalid file: File is not a readable spreadsheet or CSV
//	          Action: Upload an .xlsx workbook or a delimited text file
//	FILE003 - Legacy format: .xls workbooks are not supported
//	          Action: Save the workbook as .xlsx or .csv and try again
//	FILE004 - No file: No file was selected
//	          Action: Choose or drop a file to load
//	FILE005 - Empty file: The file contains no rows
//	          Action: Load a file with a header row
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - No data: There are no rows to export
//	         Action: Load a file or undo the filter that removed every row
//	EXP002 - Write failed: The export could not be written
//	         Action: Please try again
//
// # Operation Errors (OP001-OP099)
//
//	OP001 - Busy: Another operation is still running
//	        Action: Wait for it to finish
//	OP002 - Engine not ready: The processing engine has not started
//	        Action: Start the engine and wait until it reports ready
//	OP003 - Unknown operation: No such cleaning operation
//	        Action: Pick one of the listed operations
//	OP004 - Script failed: The operation failed and the data was left unchanged
//	        Action: Check the server log for the script output
//
// # State Errors (STATE001)
//
//	STATE001 - Not available: That action is not available right now
//	           Action: Load a file first
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request was cancelled
//	REQ002 - Request timed out
//	REQ003 - Invalid request: A parameter was missing or malformed
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again
//
// Sentinel errors are matched with errors.Is and errors.As first. Text
// patterns are matched case-insensitively with strings.Contains, so errors
// that crossed a process or HTTP boundary still map. The first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/refinery/internal/engine"
	"github.com/JonMunkholm/refinery/internal/tabular"
	"github.com/JonMunkholm/refinery/internal/transform"
)

var (
	// ErrBusy is returned when an operation is requested while another is running.
	ErrBusy = errors.New("another operation is in progress")

	// ErrNoFile is returned when a load request carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrInvalidState is returned for actions that are not valid in the current state.
	ErrInvalidState = errors.New("action not valid in current state")

	// ErrExportWrite wraps failures while writing an export.
	ErrExportWrite = errors.New("export write failed")

	// ErrInvalidRequest wraps malformed request parameters.
	ErrInvalidRequest = errors.New("invalid request")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorRule matches an error by identity, by type or by text.
type errorRule struct {
	target  error
	match   func(error) bool
	pattern string
	msg     UserMessage
}

func (r errorRule) matches(err error, lower string) bool {
	if r.target != nil && errors.Is(err, r.target) {
		return true
	}
	if r.match != nil && r.match(err) {
		return true
	}
	return r.pattern != "" && strings.Contains(lower, r.pattern)
}

func isExecutionError(err error) bool {
	var execErr *engine.ExecutionError
	return errors.As(err, &execErr)
}

// errorRules is ordered: the legacy-format rule must precede the generic
// decode rule it wraps.
var errorRules = []errorRule{
	{
		target:  tabular.ErrTooLarge,
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file or remove unused sheets",
			Code:    "FILE001",
		},
	},
	{
		target: tabular.ErrLegacyFormat,
		msg: UserMessage{
			Message: "Legacy .xls workbooks are not supported",
			Action:  "Save the workbook as .xlsx or .csv and try again",
			Code:    "FILE003",
		},
	},
	{
		target: tabular.ErrDecode,
		msg: UserMessage{
			Message: "Error reading file. Please try a valid Excel or CSV",
			Action:  "Upload an .xlsx workbook or a delimited text file",
			Code:    "FILE002",
		},
	},
	{
		target:  ErrNoFile,
		pattern: "no such file",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose or drop a file to load",
			Code:    "FILE004",
		},
	},
	{
		target: tabular.ErrNoRows,
		msg: UserMessage{
			Message: "The file contains no rows",
			Action:  "Load a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		target: tabular.ErrNoData,
		msg: UserMessage{
			Message: "No data to export!",
			Action:  "Load a file with data rows first",
			Code:    "EXP001",
		},
	},
	{
		target: ErrExportWrite,
		msg: UserMessage{
			Message: "Export failed",
			Action:  "Please try again",
			Code:    "EXP002",
		},
	},
	{
		target: ErrBusy,
		msg: UserMessage{
			Message: "Another operation is still running",
			Action:  "Wait for it to finish",
			Code:    "OP001",
		},
	},
	{
		target: engine.ErrNotReady,
		msg: UserMessage{
			Message: "The processing engine is not ready",
			Action:  "Start the engine and wait until it reports ready",
			Code:    "OP002",
		},
	},
	{
		target: transform.ErrUnknownOperation,
		msg: UserMessage{
			Message: "Unknown operation",
			Action:  "Pick one of the listed operations",
			Code:    "OP003",
		},
	},
	{
		match: isExecutionError,
		msg: UserMessage{
			Message: "The operation failed and your data was left unchanged",
			Action:  "Check the server log for the script output",
			Code:    "OP004",
		},
	},
	{
		target: ErrInvalidState,
		msg: UserMessage{
			Message: "That action is not available right now",
			Action:  "Load a file first",
			Code:    "STATE001",
		},
	},
	{
		target:  context.Canceled,
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		target:  context.DeadlineExceeded,
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again",
			Code:    "REQ002",
		},
	},
	{
		target: ErrInvalidRequest,
		msg: UserMessage{
			Message: "Invalid request",
			Action:  "Check the request parameters",
			Code:    "REQ003",
		},
	},
}

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no rule matches, a generic fallback with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	lower := strings.ToLower(err.Error())
	for _, r := range errorRules {
		if r.matches(err, lower) {
			return r.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message (for display).
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

package core

// error_messages.go maps technical errors to user-friendly messages.
//
// Every failure is caught at the operation boundary and converted to a
// notification; nothing propagates as an unhandled fault. When users report
// an error they can quote the code for faster diagnosis:
//
//	IMP001-IMP004 - Import errors (file format, empty result)
//	ST001-ST004   - Store errors (connection, timeout)
//	REQ001-REQ002 - Request errors (cancelled, rate limited)
//	ERR000        - Fallback when no pattern matches
//
// Patterns are matched case-insensitively with strings.Contains. The first
// matching pattern wins, so more specific patterns come before general ones.

import "strings"

// UserMessage provides user-friendly error information with actionable
// guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Import errors (IMP001-IMP004)
	{
		pattern: "no valid rows",
		msg: UserMessage{
			Message: "No valid cutoff rows were found in the file",
			Action:  "Check that the file has columns: serial, institution, program, cutoff, outside count, inside count",
			Code:    "IMP001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a spreadsheet export with data rows",
			Code:    "IMP002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The file is not a valid CSV export",
			Action:  "Re-export the sheet as CSV and try again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "IMP004",
		},
	},

	// Store errors (ST001-ST004)
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the data store",
			Action:  "Your changes are kept in this session; try saving again in a few moments",
			Code:    "ST001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The data store connection was interrupted",
			Action:  "Please try saving again",
			Code:    "ST002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The save operation timed out",
			Action:  "Please try again later",
			Code:    "ST003",
		},
	},
	{
		pattern: "save session",
		msg: UserMessage{
			Message: "Unable to save your list",
			Action:  "Please check your connection and try again",
			Code:    "ST004",
		},
	},
	{
		pattern: "load session",
		msg: UserMessage{
			Message: "Unable to load saved data",
			Action:  "Please try again; your current list is unaffected",
			Code:    "ST004",
		},
	},

	// Request errors (REQ001-REQ002)
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "REQ002",
		},
	},
}

// MapError converts a technical error into a user-friendly message with an
// actionable suggestion and a support code.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
}

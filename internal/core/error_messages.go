// Package core provides the query-rule engine shared by every table view.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When a table shows an error banner, the code in it can be quoted to support
// staff for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Remote Query Errors (REM001-REM099)
//
// Errors raised while fetching a page from a remote data service:
//
//	REM001 - Unreachable: Unable to reach the data service
//	         Action: Check your connection and try again
//	         Patterns: "remote transport"
//
//	REM002 - Bad status: The data service rejected the request
//	         Action: Try removing a filter or sort rule
//	         Patterns: "remote status"
//
//	REM003 - Bad response: The data service returned an unexpected response
//	         Action: Please try again later
//	         Patterns: "remote response"
//
//	REM004 - Timeout: The data service took too long to respond
//	         Action: Please try again
//	         Patterns: "deadline exceeded", "timeout"
//
//	REM005 - Cancelled: The request was cancelled
//	         Action: No action needed
//	         Patterns: "context canceled"
//
//	REM006 - Busy: Too many fetches are waiting on the data service
//	         Action: Please try again in a few seconds
//	         Patterns: "too many concurrent remote fetches"
//
// # Query Errors (QRY001-QRY099)
//
// Errors in query strings received by the OData endpoint:
//
//	QRY001 - Invalid filter: The $filter expression could not be parsed
//	         Action: Check the filter syntax
//	         Patterns: "invalid $filter"
//
//	QRY002 - Invalid orderby: The $orderby expression could not be parsed
//	         Action: Check the sort syntax
//	         Patterns: "invalid $orderby"
//
//	QRY003 - Invalid paging: $top or $skip is not a non-negative integer
//	         Action: Check the paging parameters
//	         Patterns: "invalid $top", "invalid $skip"
//
// # View Errors (TBL001-TBL099)
//
//	TBL001 - Unknown view: The requested table does not exist
//	         Action: Pick a table from the dashboard
//	         Patterns: "unknown view"
//
// # Ticket Errors (TKT001-TKT099)
//
//	TKT001 - Not found: The ticket does not exist
//	         Action: Refresh the ticket list
//	         Patterns: "ticket not found"
//
//	TKT002 - Invalid ticket: The ticket is missing required fields
//	         Action: Fill in the issue and try again
//	         Patterns: "invalid ticket"
//
//	TKT003 - Invalid status: The status is not one of the known statuses
//	         Action: Pick a status from the list
//	         Patterns: "invalid status"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB002 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
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

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Cancellation and timeouts (REM004-REM005)
	// Checked first: remote errors wrap these.
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "No action needed",
			Code:    "REM005",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The data service took too long to respond",
			Action:  "Please try again",
			Code:    "REM004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The data service took too long to respond",
			Action:  "Please try again",
			Code:    "REM004",
		},
	},

	// =========================================================================
	// Remote Query Errors (REM001-REM003, REM006)
	// =========================================================================
	{
		pattern: "too many concurrent remote fetches",
		msg: UserMessage{
			Message: "The data service is busy",
			Action:  "Please try again in a few seconds",
			Code:    "REM006",
		},
	},
	{
		pattern: "remote transport",
		msg: UserMessage{
			Message: "Unable to reach the data service",
			Action:  "Check your connection and try again",
			Code:    "REM001",
		},
	},
	{
		pattern: "remote status",
		msg: UserMessage{
			Message: "The data service rejected the request",
			Action:  "Try removing a filter or sort rule",
			Code:    "REM002",
		},
	},
	{
		pattern: "remote response",
		msg: UserMessage{
			Message: "The data service returned an unexpected response",
			Action:  "Please try again later",
			Code:    "REM003",
		},
	},

	// =========================================================================
	// Query Errors (QRY001-QRY003)
	// =========================================================================
	{
		pattern: "invalid $filter",
		msg: UserMessage{
			Message: "The filter expression could not be parsed",
			Action:  "Check the filter syntax",
			Code:    "QRY001",
		},
	},
	{
		pattern: "invalid $orderby",
		msg: UserMessage{
			Message: "The sort expression could not be parsed",
			Action:  "Check the sort syntax",
			Code:    "QRY002",
		},
	},
	{
		pattern: "invalid $top",
		msg: UserMessage{
			Message: "Paging parameters must be non-negative integers",
			Action:  "Check the paging parameters",
			Code:    "QRY003",
		},
	},
	{
		pattern: "invalid $skip",
		msg: UserMessage{
			Message: "Paging parameters must be non-negative integers",
			Action:  "Check the paging parameters",
			Code:    "QRY003",
		},
	},

	// =========================================================================
	// View and Ticket Errors (TBL001, TKT001-TKT003)
	// =========================================================================
	{
		pattern: "unknown view",
		msg: UserMessage{
			Message: "The requested table does not exist",
			Action:  "Pick a table from the dashboard",
			Code:    "TBL001",
		},
	},
	{
		pattern: "ticket not found",
		msg: UserMessage{
			Message: "The ticket does not exist",
			Action:  "Refresh the ticket list",
			Code:    "TKT001",
		},
	},
	{
		pattern: "invalid ticket",
		msg: UserMessage{
			Message: "The ticket is missing required fields",
			Action:  "Fill in the issue and try again",
			Code:    "TKT002",
		},
	},
	{
		pattern: "invalid status",
		msg: UserMessage{
			Message: "The status is not one of the known statuses",
			Action:  "Pick a status from the list",
			Code:    "TKT003",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB002)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
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

// IsUserFacing checks if an error matches a known pattern.
// Returns false for nil and for the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

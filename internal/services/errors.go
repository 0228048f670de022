// Package services defines the business logic of the coaching backend:
// the coach conversation orchestrator, document intake, prompt management,
// the overseer thread, report generation, and agent feedback.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrClientNotFound indicates that the requested client does not exist or
	// is not accessible to the current user. The two cases are deliberately
	// indistinguishable to callers.
	ErrClientNotFound = errors.New("client not found")

	// ErrEmptyMessage is returned when a conversation request carries an
	// empty or whitespace-only message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrEmptyPrompt is returned when a prompt update carries no content.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrInvalidAgentKind is returned when an agent type is outside the
	// known set (COACH, OVERSEER, REPORT).
	ErrInvalidAgentKind = errors.New("unknown agent kind")

	// ErrNoFeedback is returned by prompt refinement when no feedback has
	// been recorded yet for the requested agent kind.
	ErrNoFeedback = errors.New("no feedback available for agent kind")

	// ErrMessageNotFound indicates that the message targeted by feedback
	// does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyFeedback is returned when a feedback submission carries no
	// text.
	ErrEmptyFeedback = errors.New("feedback is empty")

	// ErrCoachNotFound is returned when a client update names a coach that
	// does not exist or is not a COACH user.
	ErrCoachNotFound = errors.New("coach user not found")

	// ErrEmptyName is returned when client creation carries no name.
	ErrEmptyName = errors.New("name is required")

	// ErrEmptyFile is returned when a document upload carries no bytes.
	ErrEmptyFile = errors.New("file is empty")
)

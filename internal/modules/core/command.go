package core

import (
	"errors"
	"fmt"
	"net/http"
)

type Unit struct{}

type ErrorCode string

const (
	CodeInternal         ErrorCode = "INTERNAL"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	CodeSessionNotFound       ErrorCode = "SESSION_NOT_FOUND"
	CodeSessionAlreadyEnded   ErrorCode = "SESSION_ALREADY_ENDED"
	CodeSessionNoLongerActive ErrorCode = "SESSION_NO_LONGER_ACTIVE"
	CodeUnauthorizedAction    ErrorCode = "UNAUTHORIZED_ACTION"

	CodeInviteNotFound       ErrorCode = "INVITE_NOT_FOUND"
	CodeNotYourInvite        ErrorCode = "NOT_YOUR_INVITE"
	CodeInviteNotPending     ErrorCode = "INVITE_NOT_PENDING"
	CodeOnlyOwnerCanInvite   ErrorCode = "ONLY_OWNER_CAN_INVITE"
	CodeOnlyOwnerCanRevoke   ErrorCode = "ONLY_OWNER_CAN_REVOKE"
	CodeUserSettingsNotFound ErrorCode = "USER_SETTINGS_NOT_FOUND"
	CodeUserDisabledInvites  ErrorCode = "USER_DISABLED_INVITES"

	CodeFriendRequestNotFound       ErrorCode = "FRIEND_REQUEST_NOT_FOUND"
	CodeNotYourFriendRequest        ErrorCode = "NOT_YOUR_FRIEND_REQUEST"
	CodeFriendRequestNotPending     ErrorCode = "FRIEND_REQUEST_NOT_PENDING"
	CodeFriendRequestAlreadyPending ErrorCode = "FRIEND_REQUEST_ALREADY_PENDING"
	CodeAlreadyFriends              ErrorCode = "ALREADY_FRIENDS"
	CodeCannotFriendSelf            ErrorCode = "CANNOT_FRIEND_SELF"
)

const internalErrorMessage = "internal server error"

// StatusCode maps an error code onto the HTTP status it is reported with.
func StatusCode(code ErrorCode) int {
	switch code {
	case CodeSessionNotFound,
		CodeInviteNotFound,
		CodeFriendRequestNotFound,
		CodeUserSettingsNotFound:
		return http.StatusNotFound

	case CodeSessionAlreadyEnded,
		CodeAlreadyFriends,
		CodeFriendRequestAlreadyPending:
		return http.StatusConflict

	case CodeUnauthorizedAction,
		CodeNotYourInvite,
		CodeOnlyOwnerCanInvite,
		CodeOnlyOwnerCanRevoke,
		CodeUserDisabledInvites,
		CodeNotYourFriendRequest:
		return http.StatusForbidden

	case CodeInviteNotPending,
		CodeFriendRequestNotPending,
		CodeSessionNoLongerActive,
		CodeCannotFriendSelf,
		CodeValidationFailed:
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// CommandError is the only error type command handlers report to callers.
// Business rule violations carry their own code and message, infrastructure
// failures use CodeInternal and keep the cause for logging only.
type CommandError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	cause error
}

type CommandErrorOption func(*CommandError)

func WithCause(err error) CommandErrorOption {
	return func(e *CommandError) {
		e.cause = err
	}
}

func NewCommandError(code ErrorCode, message string, opts ...CommandErrorOption) CommandError {
	e := CommandError{
		Code:    code,
		Message: message,
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

func NewInternalError(err error) CommandError {
	return NewCommandError(CodeInternal, internalErrorMessage, WithCause(err))
}

func (e CommandError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.cause.Error())
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e CommandError) Unwrap() error {
	return e.cause
}

func (e CommandError) StatusCode() int {
	return StatusCode(e.Code)
}

func (e CommandError) Internal() bool {
	return StatusCode(e.Code) == http.StatusInternalServerError
}

// AsCommandError returns err as a CommandError, treating anything that is
// not one as an internal failure.
func AsCommandError(err error) CommandError {
	var commandErr CommandError
	if errors.As(err, &commandErr) {
		return commandErr
	}

	return NewInternalError(err)
}

// HasCode reports whether err is a CommandError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var commandErr CommandError
	return errors.As(err, &commandErr) && commandErr.Code == code
}

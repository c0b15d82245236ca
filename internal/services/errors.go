package services

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers. Handlers map it to an HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindConflict
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

var (
	ErrTeamNotFound       = newError(KindNotFound, "team not found")
	ErrStudentNotFound    = newError(KindNotFound, "student not found")
	ErrMemberNotFound     = newError(KindNotFound, "member not found")
	ErrInvitationNotFound = newError(KindNotFound, "invitation not found")

	ErrNotTeamLeader = newError(KindAuthorization, "only the team leader can perform this action")
	ErrNotInvitee    = newError(KindAuthorization, "only the invited student can respond to this invitation")
	ErrNotInviter    = newError(KindAuthorization, "only the student who sent the invitation can cancel it")

	ErrAlreadyLeader       = newError(KindConflict, "student already leads an active team")
	ErrAlreadyMember       = newError(KindConflict, "student is already a member of this team")
	ErrStudentIsLeader     = newError(KindConflict, "student is the leader of this team")
	ErrCannotRemoveLeader  = newError(KindConflict, "cannot remove the team leader")
	ErrPendingInviteExists = newError(KindConflict, "a pending invitation already exists for this student")

	ErrInvitationNotPending = newError(KindState, "invitation is no longer pending")

	ErrJoinCodeExhausted = newError(KindInternal, "could not generate a unique join code")
)

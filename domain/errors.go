package dmn

import "errors"

// ErrorKind classifies domain errors so transports can map them to a response.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindValidation
	KindUnauthenticated
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidState:
		return "InvalidState"
	case KindValidation:
		return "ValidationFailure"
	case KindUnauthenticated:
		return "Unauthenticated"
	default:
		return "Internal"
	}
}

// Error is a typed domain error. Code is a stable identifier, Message is shown to the caller.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Code so wrapped copies compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Domain errors.
var (
	ErrGameNotFound    = &Error{Kind: KindNotFound, Code: "GameNotFound", Message: "game not found"}
	ErrRoomNotFound    = &Error{Kind: KindNotFound, Code: "RoomNotFound", Message: "room not found"}
	ErrUserNotFound    = &Error{Kind: KindNotFound, Code: "UserNotFound", Message: "user not found"}
	ErrPlayerNotInGame = &Error{Kind: KindNotFound, Code: "PlayerNotInGame", Message: "player not in game"}

	ErrGameNotInProgress   = &Error{Kind: KindInvalidState, Code: "GameNotInProgress", Message: "game is not in progress"}
	ErrNotPlayersTurn      = &Error{Kind: KindInvalidState, Code: "NotPlayersTurn", Message: "not your turn"}
	ErrPhaseMismatch       = &Error{Kind: KindInvalidState, Code: "PhaseMismatch", Message: "action not allowed in the current turn phase"}
	ErrInsufficientPlayers = &Error{Kind: KindInvalidState, Code: "InsufficientPlayers", Message: "need at least 2 players"}
	ErrNoPendingQuiz       = &Error{Kind: KindInvalidState, Code: "NoPendingQuiz", Message: "no quiz is waiting for an answer"}
	ErrPlayerNotPlaying    = &Error{Kind: KindInvalidState, Code: "PlayerNotPlaying", Message: "player is no longer playing"}
	ErrRoomNotWaiting      = &Error{Kind: KindInvalidState, Code: "RoomNotWaiting", Message: "room is not accepting players"}
	ErrRoomFull            = &Error{Kind: KindInvalidState, Code: "RoomFull", Message: "room is full"}
	ErrAlreadyInRoom       = &Error{Kind: KindInvalidState, Code: "AlreadyInRoom", Message: "user already in room"}
	ErrUsernameTaken       = &Error{Kind: KindInvalidState, Code: "UsernameTaken", Message: "username conflict"}

	ErrInvalidQuizOption = &Error{Kind: KindValidation, Code: "InvalidQuizOption", Message: "unrecognized quiz option"}
	ErrInvalidRequest    = &Error{Kind: KindValidation, Code: "InvalidRequest", Message: "malformed request"}

	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Code: "Unauthenticated", Message: "user not authenticated"}
)

// KindOf returns the kind of a domain error anywhere in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

package services

import (
	"errors"
	"fmt"
)

// Базовая таксономия ошибок движка. Обработчики HTTP матчат ошибки
// через errors.Is по этим родовым значениям; конкретные ошибки ниже
// оборачивают родовые через %w.
var (
	ErrValidationFailed  = errors.New("validation failed")
	ErrUnauthorized      = errors.New("operation not allowed for the current user")
	ErrInvalidState      = errors.New("operation not legal in current match status")
	ErrNotFound          = errors.New("requested resource not found")
	ErrContention        = errors.New("resource is locked by a concurrent operation, retry")
	ErrBracketIncomplete = errors.New("bracket data not available yet")
	ErrRosterFull        = errors.New("team roster is already at maximum size")
)

// Ошибки валидации и бизнес-правил
var (
	ErrNegativeScore         = fmt.Errorf("%w: score cannot be negative", ErrValidationFailed)
	ErrScoreMismatch         = fmt.Errorf("%w: confirmed score differs from the submitted score", ErrValidationFailed)
	ErrNoWinnerDeterminable  = fmt.Errorf("%w: knockout match needs a winner (extra time or penalties)", ErrValidationFailed)
	ErrPenaltiesRequireTie   = fmt.Errorf("%w: penalties require a tied regulation score", ErrValidationFailed)
	ErrPenaltyWinnerInvalid  = fmt.Errorf("%w: penalty winner must be one of the two match sides", ErrValidationFailed)
	ErrGroupStageNotReady    = fmt.Errorf("%w: tournament does not have the required number of complete teams", ErrValidationFailed)
	ErrGroupStageIncomplete  = fmt.Errorf("%w: group stage has unconfirmed matches", ErrBracketIncomplete)
	ErrScreenshotTypeInvalid = fmt.Errorf("%w: unsupported screenshot content type", ErrValidationFailed)
	ErrTournamentWrongStatus = fmt.Errorf("%w: tournament status does not allow this operation", ErrInvalidState)
)

// Ошибки авторизации
var (
	ErrNotTeamManager       = fmt.Errorf("%w: only the team manager can perform this action", ErrUnauthorized)
	ErrNotMatchParticipant  = fmt.Errorf("%w: manager controls neither side of this match", ErrUnauthorized)
	ErrNotTournamentOwner   = fmt.Errorf("%w: only the tournament organizer can perform this action", ErrUnauthorized)
	ErrAdminOnly            = fmt.Errorf("%w: administrator rights required", ErrUnauthorized)
	ErrCannotDisputeOwnSide = fmt.Errorf("%w: the submitting side cannot dispute its own result", ErrUnauthorized)
)

// Ошибки состояний матча
var (
	ErrMatchNotScheduled = fmt.Errorf("%w: match is not in SCHEDULED status", ErrInvalidState)
	ErrMatchNotPending   = fmt.Errorf("%w: match has no result awaiting confirmation", ErrInvalidState)
	ErrMatchNotDisputed  = fmt.Errorf("%w: match is not in DISPUTED status", ErrInvalidState)
	ErrMatchDisputed     = fmt.Errorf("%w: match is disputed, awaiting administrative resolution", ErrInvalidState)
)

// Ошибки отсутствия сущностей
var (
	ErrTeamNotFound       = fmt.Errorf("%w: team", ErrNotFound)
	ErrPlayerNotFound     = fmt.Errorf("%w: player", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("%w: match", ErrNotFound)
	ErrResultNotFound     = fmt.Errorf("%w: result", ErrNotFound)
	ErrTournamentNotFound = fmt.Errorf("%w: tournament", ErrNotFound)
	ErrManagerNotFound    = fmt.Errorf("%w: manager", ErrNotFound)
)

package game

import "errors"

// Illegal-move errors. These are rejected synchronously with no state
// mutation; callers treat them as action-rejected notices, not faults.
var (
	ErrMatchComplete      = errors.New("match is complete")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrAlreadyPassed      = errors.New("already passed this round")
	ErrCardNotInHand      = errors.New("card not in hand")
	ErrCardBudgetExceeded = errors.New("per-exchange card budget exceeded")
	ErrInvalidLane        = errors.New("invalid lane")
	ErrLeaderUsed         = errors.New("leader ability already used")
	ErrLeaderDisabled     = errors.New("leader ability disabled by match rules")
	ErrUnknownParticipant = errors.New("unknown participant")
)

// Setup errors. Surfaced to the orchestration layer before a match is
// constructed; a match never starts half-configured.
var (
	ErrMissingDeck    = errors.New("participant has no deck")
	ErrMissingLeader  = errors.New("participant has no leader")
	ErrUnknownCard    = errors.New("card not present in catalog")
	ErrBadConfig      = errors.New("invalid match configuration")
)

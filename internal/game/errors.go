package game

import "errors"

// Transition errors. All of them are recoverable at the request boundary:
// a failed transition leaves the game unchanged and the session usable.
var (
	ErrInvalidBet        = errors.New("invalid bet")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRoundInProgress   = errors.New("round in progress")
	ErrGameOver          = errors.New("game over")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrRoundActive       = errors.New("cannot buy during round")

	// ErrDeckExhausted is drawOne's empty-shoe error. Transitions never
	// surface it: a shoe that runs dry mid-round is rebuilt instead.
	ErrDeckExhausted = errors.New("deck exhausted")
)

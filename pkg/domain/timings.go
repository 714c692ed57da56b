package domain

import "time"

// Fixed pacing of the simulated assistant.
const (
	FirstTurnDelay     = 500 * time.Millisecond
	TurnDelay          = 1500 * time.Millisecond
	TypingDelay        = 800 * time.Millisecond
	ReturnDelay        = 500 * time.Millisecond
	ConfirmDelay       = 300 * time.Millisecond
	ConfirmTypingDelay = TypingDelay + 300*time.Millisecond
	ReplyDelay         = 300 * time.Millisecond
	ReplyTypingDelay   = TypingDelay + 500*time.Millisecond
)

// Timings groups the delays so tests can refer to them by name.
type Timings struct {
	FirstTurnDelay     time.Duration
	TurnDelay          time.Duration
	TypingDelay        time.Duration
	ReturnDelay        time.Duration
	ConfirmDelay       time.Duration
	ConfirmTypingDelay time.Duration
	ReplyDelay         time.Duration
	ReplyTypingDelay   time.Duration
}

// DefaultTimings returns the fixed pacing constants.
func DefaultTimings() Timings {
	return Timings{
		FirstTurnDelay:     FirstTurnDelay,
		TurnDelay:          TurnDelay,
		TypingDelay:        TypingDelay,
		ReturnDelay:        ReturnDelay,
		ConfirmDelay:       ConfirmDelay,
		ConfirmTypingDelay: ConfirmTypingDelay,
		ReplyDelay:         ReplyDelay,
		ReplyTypingDelay:   ReplyTypingDelay,
	}
}

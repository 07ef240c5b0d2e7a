package rps

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownMove    = errors.New("unknown move")
	ErrUnknownOutcome = errors.New("unknown outcome")
)

// Move is a player's choice. NoMove marks a move that has not been submitted yet.
type Move int

const (
	NoMove Move = iota
	Rock
	Paper
	Scissors
)

var moveNames = map[Move]string{
	NoMove:   "NoMove",
	Rock:     "Rock",
	Paper:    "Paper",
	Scissors: "Scissors",
}

func (m Move) String() string {
	if s, ok := moveNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Move(%d)", int(m))
}

// Playable reports whether m is a real choice a player may submit.
func (m Move) Playable() bool {
	return m == Rock || m == Paper || m == Scissors
}

// ParseMove accepts the wire names case-insensitively plus the r/p/s shorthands.
func ParseMove(s string) (Move, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rock", "r":
		return Rock, nil
	case "paper", "p":
		return Paper, nil
	case "scissors", "s":
		return Scissors, nil
	case "nomove", "no_move":
		return NoMove, nil
	default:
		return NoMove, fmt.Errorf("%w: %q", ErrUnknownMove, s)
	}
}

func (m Move) MarshalText() ([]byte, error) {
	s, ok := moveNames[m]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMove, int(m))
	}
	return []byte(s), nil
}

func (m *Move) UnmarshalText(b []byte) error {
	v, err := ParseMove(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Outcome is the state of a session's result. InProgress is written as "Started" on the wire.
type Outcome int

const (
	InProgress Outcome = iota
	HostWins
	OpponentWins
	Tie
)

var outcomeNames = map[Outcome]string{
	InProgress:   "Started",
	HostWins:     "HostWins",
	OpponentWins: "OpponentWins",
	Tie:          "Tie",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "started", "inprogress", "in_progress":
		return InProgress, nil
	case "hostwins", "host_wins":
		return HostWins, nil
	case "opponentwins", "opponent_wins":
		return OpponentWins, nil
	case "tie":
		return Tie, nil
	default:
		return InProgress, fmt.Errorf("%w: %q", ErrUnknownOutcome, s)
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	s, ok := outcomeNames[o]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOutcome, int(o))
	}
	return []byte(s), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	v, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Session is the persisted state of one game between a host and an opponent.
type Session struct {
	HostMove     Move    `json:"host_move"`
	OpponentMove Move    `json:"opponent_move"`
	Result       Outcome `json:"result"`
}

// NewSession opens a session with the host's first move; the opponent has not moved yet.
func NewSession(first Move) Session {
	return Session{HostMove: first, OpponentMove: NoMove, Result: InProgress}
}

func (s Session) Resolved() bool { return s.Result != InProgress }

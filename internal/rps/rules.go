package rps

// beats maps each playable move to the move it defeats.
var beats = map[Move]Move{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// Beats reports whether a defeats b. NoMove never beats anything.
func Beats(a, b Move) bool {
	victim, ok := beats[a]
	return ok && victim == b
}

// Decide returns the outcome of host against opponent. Either side still at NoMove keeps the game in progress.
func Decide(host, opponent Move) Outcome {
	if !host.Playable() || !opponent.Playable() {
		return InProgress
	}
	switch {
	case host == opponent:
		return Tie
	case Beats(host, opponent):
		return HostWins
	default:
		return OpponentWins
	}
}

// Resolve records the opponent's move and computes the result.
func (s Session) Resolve(opponent Move) Session {
	s.OpponentMove = opponent
	s.Result = Decide(s.HostMove, opponent)
	return s
}

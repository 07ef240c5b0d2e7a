package rpsdto

import "github.com/park285/Cheese-RPS-bot/internal/rps"

// ExecuteMsg is the body of POST /execute. Exactly one field is set.
type ExecuteMsg struct {
	StartGame  *StartGame  `json:"start_game,omitempty"`
	SubmitMove *SubmitMove `json:"submit_move,omitempty"`
}

// StartGame is sent by the host; Addr names the opponent.
type StartGame struct {
	Addr      string   `json:"addr"`
	FirstMove rps.Move `json:"first_move"`
}

// SubmitMove is sent by the opponent; Addr names the host.
type SubmitMove struct {
	Addr string   `json:"addr"`
	Move rps.Move `json:"move"`
}

// QueryMsg is the body of POST /query. Exactly one field is set.
type QueryMsg struct {
	QueryHostGames *QueryHostGames `json:"query_host_games,omitempty"`
	QueryAllGames  *QueryAllGames  `json:"query_all_games,omitempty"`
	QueryHistory   *QueryHistory   `json:"query_history,omitempty"`
}

type QueryHostGames struct {
	Addr string `json:"addr"`
}

type QueryAllGames struct{}

type QueryHistory struct {
	Addr  string `json:"addr"`
	Limit int    `json:"limit,omitempty"`
}

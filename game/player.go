package game

// Player is one participant's identity and running score inside a room.
// Rooms hand out copies, so mutating a returned Player has no effect.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Streak int    `json:"streak"`
}

type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

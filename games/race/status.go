package race

import "time"

// Status is the single source of truth for which phase the game is in.
type Status string

const (
	StatusStart     Status = "start"
	StatusLobby     Status = "lobby"
	StatusCountdown Status = "countdown"
	StatusPlaying   Status = "playing"
	StatusFinished  Status = "finished"
)

// hasPlayers reports whether the roster exists in this status.
func (s Status) hasPlayers() bool {
	return s != StatusStart
}

// Sound is a one-shot audio cue emitted by scoring.
type Sound string

const (
	SoundCorrect Sound = "correct"
	SoundWrong   Sound = "wrong"
	SoundMove    Sound = "move"
)

const (
	PlayerCount         = 4
	MaxNameLength       = 15
	DefaultWinningScore = 10

	// CountdownStart is the first value shown; CountdownGo follows 1.
	CountdownStart = 3
	CountdownGo    = 0

	DefaultCountdownTick = time.Second
	DefaultAdvanceFlash  = 800 * time.Millisecond
)

// WinningScoreOptions are the targets offered by the settings screen.
// Any positive value is accepted.
var WinningScoreOptions = []int{5, 10, 15, 20}

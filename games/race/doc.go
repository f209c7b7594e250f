// Package race implements the game logic of a four-player quiz race.
//
// Players share one screen. Each answers multiple-choice questions from
// their own shuffled queue, and every correct answer moves their car one
// step toward the finish line. The first player to reach the winning score
// ends the race.
//
// Status flow:
//
//	Start -> Lobby -> Countdown -> Playing -> Finished -> Countdown (rematch)
//	                                                  \-> Start (main menu)
//
// An Engine is owned by a single goroutine. Timers do not call back into
// the engine directly: the Scheduler decides where their callbacks run, so
// the owner can funnel them through the same loop as player intents.
//
// Usage:
//
//	e := race.New(race.Config{Questions: questions.Default()})
//	e.BeginLobby()
//	e.RenamePlayer(1, "Ayu")
//	e.StartCountdown()
//	// ... four countdown ticks later the race is Playing
//	e.SubmitAnswer(1, 2)
//	snap := e.Snapshot()
package race

package race

import (
	"math/rand/v2"

	"github.com/mokhamadniam35-cmd/Descriptive-Race/questions"
)

// NewRaceQueues gives every player an independent uniform (Fisher-Yates)
// permutation of the usable questions. Malformed records are left out.
// It returns nil when nothing usable remains, and the race must not start.
func NewRaceQueues(r *rand.Rand, qs []questions.Question, playerCount int) [][]questions.Question {
	usable := questions.Sanitize(qs)
	if len(usable) == 0 || playerCount <= 0 {
		return nil
	}

	queues := make([][]questions.Question, playerCount)
	for i := range queues {
		q := make([]questions.Question, len(usable))
		copy(q, usable)
		r.Shuffle(len(q), func(a, b int) {
			q[a], q[b] = q[b], q[a]
		})
		queues[i] = q
	}

	return queues
}

package race

import "time"

// QuestionView is a question as shown to players, without its answer.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type PlayerView struct {
	ID                   int           `json:"id"`
	Name                 string        `json:"name"`
	Color                string        `json:"color"`
	Score                int           `json:"score"`
	Progress             float64       `json:"progress"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	LastAnswerTime       time.Time     `json:"lastAnswerTime"`
	IsAdvancing          bool          `json:"isAdvancing"`
	Question             *QuestionView `json:"question,omitempty"`
}

// Snapshot is a read-only copy of everything the presentation renders.
type Snapshot struct {
	Status         Status       `json:"status"`
	RaceID         string       `json:"raceId,omitempty"`
	WinningScore   int          `json:"winningScore"`
	QuestionCount  int          `json:"questionCount"`
	Players        []PlayerView `json:"players"`
	Countdown      int          `json:"countdown"`
	CountdownLabel string       `json:"countdownLabel"`
	Winner         *PlayerView  `json:"winner,omitempty"`
	Audio          AudioSignal  `json:"audio"`
}

func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Status:         e.status,
		RaceID:         e.raceID,
		WinningScore:   e.winningScore,
		QuestionCount:  len(e.questions),
		Players:        make([]PlayerView, 0, len(e.players)),
		Countdown:      e.countdown,
		CountdownLabel: CountdownLabel(e.countdown),
		Audio:          e.Audio(),
	}

	if !e.status.hasPlayers() {
		return s
	}

	for i, p := range e.players {
		v := PlayerView{
			ID:                   p.ID,
			Name:                 p.Name,
			Color:                Colors[i%len(Colors)],
			Score:                p.Score,
			Progress:             Intensity(p.Score, e.winningScore),
			CurrentQuestionIndex: p.CurrentQuestionIndex,
			LastAnswerTime:       p.LastAnswerTime,
			IsAdvancing:          p.advancing,
		}

		if e.status == StatusPlaying && i < len(e.queues) {
			q := e.queues[i][p.CurrentQuestionIndex]
			v.Question = &QuestionView{
				ID:      q.ID,
				Text:    q.Text,
				Options: append([]string(nil), q.Options...),
			}
		}

		s.Players = append(s.Players, v)
	}

	if w, ok := e.Winner(); ok {
		v := s.Players[w.ID-1]
		s.Winner = &v
	}

	return s
}

package race

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Colors are assigned by roster slot.
var Colors = [PlayerCount]string{"cyan", "fuchsia", "lime", "amber"}

// Player is one of the four fixed roster slots.
type Player struct {
	ID                   int
	Name                 string
	Score                int
	CurrentQuestionIndex int
	LastAnswerTime       time.Time

	advancing  bool
	advanceGen uint64
	advance    Timer
}

func newRoster() []*Player {
	roster := make([]*Player, PlayerCount)
	for i := range roster {
		roster[i] = &Player{
			ID:   i + 1,
			Name: defaultName(i + 1),
		}
	}
	return roster
}

func defaultName(id int) string {
	return fmt.Sprintf("Player %d", id)
}

// truncateName keeps the first MaxNameLength characters.
func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	r := []rune(name)
	return string(r[:MaxNameLength])
}

func (p *Player) stopAdvance() {
	if p.advance != nil {
		p.advance.Stop()
		p.advance = nil
	}
	p.advancing = false
	p.advanceGen++
}

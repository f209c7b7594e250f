package race

import (
	"math/rand/v2"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/mokhamadniam35-cmd/Descriptive-Race/questions"
)

// Hooks are called synchronously on the owning goroutine. Any may be nil.
type Hooks struct {
	// OnChange fires after every applied mutation, timers included.
	OnChange func()

	// OnStatus fires on every status transition.
	OnStatus func(from, to Status)

	// OnSound fires once per scoring outcome cue.
	OnSound func(Sound)
}

type Config struct {
	WinningScore int
	Questions    []questions.Question
	Scheduler    Scheduler
	Rand         *rand.Rand
	Now          func() time.Time
	Hooks        Hooks

	CountdownTick time.Duration
	AdvanceFlash  time.Duration
}

// Engine is the race state machine. It is not safe for concurrent use.
type Engine struct {
	sched         Scheduler
	rng           *rand.Rand
	now           func() time.Time
	hooks         Hooks
	countdownTick time.Duration
	advanceFlash  time.Duration

	status       Status
	winningScore int
	questions    []questions.Question
	players      []*Player
	queues       [][]questions.Question
	raceID       string
	winner       int

	countdown      int
	countdownGen   uint64
	countdownTimer Timer
}

func New(cfg Config) *Engine {
	e := &Engine{
		sched:         cfg.Scheduler,
		rng:           cfg.Rand,
		now:           cfg.Now,
		hooks:         cfg.Hooks,
		countdownTick: cfg.CountdownTick,
		advanceFlash:  cfg.AdvanceFlash,
		status:        StatusStart,
		winningScore:  cfg.WinningScore,
		countdown:     CountdownStart,
	}

	if e.sched == nil {
		e.sched = WallClock
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.countdownTick <= 0 {
		e.countdownTick = DefaultCountdownTick
	}
	if e.advanceFlash <= 0 {
		e.advanceFlash = DefaultAdvanceFlash
	}
	if e.winningScore <= 0 {
		e.winningScore = DefaultWinningScore
	}

	e.questions = questions.Sanitize(cfg.Questions)
	if len(e.questions) == 0 {
		e.questions = questions.Default()
	}

	return e
}

func (e *Engine) Status() Status {
	return e.status
}

func (e *Engine) WinningScore() int {
	return e.winningScore
}

// QuestionCount is the size of the set the next race will use.
func (e *Engine) QuestionCount() int {
	return len(e.questions)
}

// SetQuestions atomically replaces the question set used by the next race.
// A race in progress keeps its own queues. Sets with no usable question are
// rejected and the current set is kept.
func (e *Engine) SetQuestions(qs []questions.Question) bool {
	usable := questions.Sanitize(qs)
	if len(usable) == 0 {
		return false
	}
	e.questions = usable
	e.changed()
	return true
}

// BeginLobby moves from Start to Lobby with a fresh roster.
func (e *Engine) BeginLobby() bool {
	if e.status != StatusStart {
		return false
	}

	e.players = newRoster()
	e.winner = 0
	e.setStatus(StatusLobby)
	return true
}

// RenamePlayer sets a player's name while in the Lobby, truncating it to
// MaxNameLength characters.
func (e *Engine) RenamePlayer(id int, name string) bool {
	if e.status != StatusLobby {
		return false
	}

	p := e.player(id)
	if p == nil {
		return false
	}

	p.Name = truncateName(name)
	e.changed()
	return true
}

// SetWinningScore changes the target outside of a running race.
func (e *Engine) SetWinningScore(n int) bool {
	if n <= 0 {
		return false
	}

	switch e.status {
	case StatusStart, StatusLobby, StatusFinished:
	default:
		return false
	}

	e.winningScore = n
	e.changed()
	return true
}

// StartCountdown enters Countdown from the Lobby, or from Finished as a rematch.
func (e *Engine) StartCountdown() bool {
	if e.status != StatusLobby && e.status != StatusFinished {
		return false
	}

	e.startCountdown()
	e.setStatus(StatusCountdown)
	return true
}

// SubmitAnswer scores option against the player's current question.
// It is ignored outside of Playing.
func (e *Engine) SubmitAnswer(playerID, option int) bool {
	if e.status != StatusPlaying {
		return false
	}

	p := e.player(playerID)
	if p == nil {
		return false
	}

	queue := e.queues[p.ID-1]
	q := queue[p.CurrentQuestionIndex]
	p.CurrentQuestionIndex = (p.CurrentQuestionIndex + 1) % len(queue)
	p.LastAnswerTime = e.now()

	if !q.IsCorrect(option) {
		e.sound(SoundWrong)
		e.changed()
		return true
	}

	p.Score++
	e.flagAdvance(p)
	e.sound(SoundCorrect)
	e.sound(SoundMove)

	if p.Score >= e.winningScore {
		e.finish()
		return true
	}

	e.changed()
	return true
}

// ReturnToMenu abandons the session and goes back to Start, cancelling
// every pending timer.
func (e *Engine) ReturnToMenu() bool {
	if e.status == StatusStart {
		return false
	}

	e.stopCountdown()
	for _, p := range e.players {
		p.stopAdvance()
	}

	e.players = nil
	e.queues = nil
	e.winner = 0
	e.raceID = ""
	e.setStatus(StatusStart)
	return true
}

// Winner returns the winning player once the race is Finished.
func (e *Engine) Winner() (Player, bool) {
	if e.status != StatusFinished || e.winner == 0 {
		return Player{}, false
	}
	return *e.player(e.winner), true
}

// Audio is the signal exposed to the ambient audio driver.
func (e *Engine) Audio() AudioSignal {
	lead := 0
	for _, p := range e.players {
		if p.Score > lead {
			lead = p.Score
		}
	}

	return AudioSignal{
		EngineActive: engineActive(e.status),
		Intensity:    Intensity(lead, e.winningScore),
	}
}

func (e *Engine) startPlaying() {
	queues := NewRaceQueues(e.rng, e.questions, len(e.players))
	if queues == nil {
		// Unreachable while SetQuestions guards the set; never race on nothing.
		e.setStatus(StatusLobby)
		return
	}

	e.queues = queues
	e.raceID = ksuid.New().String()
	e.winner = 0

	now := e.now()
	for _, p := range e.players {
		p.stopAdvance()
		p.Score = 0
		p.CurrentQuestionIndex = 0
		p.LastAnswerTime = now
	}

	e.setStatus(StatusPlaying)
}

func (e *Engine) finish() {
	// Roster order breaks ties.
	best := e.players[0]
	for _, p := range e.players[1:] {
		if p.Score > best.Score {
			best = p
		}
	}

	e.winner = best.ID
	e.setStatus(StatusFinished)
}

// flagAdvance raises the player's advance flag and (re)arms its clear.
// Retriggering restarts the window; other players' flags are untouched.
func (e *Engine) flagAdvance(p *Player) {
	p.stopAdvance()
	p.advancing = true

	gen := p.advanceGen
	p.advance = e.sched.AfterFunc(e.advanceFlash, func() {
		if p.advanceGen != gen || !p.advancing {
			return
		}
		p.advancing = false
		p.advance = nil
		e.changed()
	})
}

func (e *Engine) player(id int) *Player {
	if id < 1 || id > len(e.players) {
		return nil
	}
	return e.players[id-1]
}

func (e *Engine) setStatus(to Status) {
	from := e.status
	e.status = to

	if e.hooks.OnStatus != nil && from != to {
		e.hooks.OnStatus(from, to)
	}
	e.changed()
}

func (e *Engine) changed() {
	if e.hooks.OnChange != nil {
		e.hooks.OnChange()
	}
}

func (e *Engine) sound(s Sound) {
	if e.hooks.OnSound != nil {
		e.hooks.OnSound(s)
	}
}

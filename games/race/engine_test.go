package race

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/mokhamadniam35-cmd/Descriptive-Race/questions"
)

type recorder struct {
	sounds   []Sound
	statuses []Status
	changes  int
}

type harness struct {
	*Engine
	sched *manualScheduler
	rec   *recorder
}

func newHarness(t *testing.T, qs []questions.Question) *harness {
	t.Helper()

	sched := &manualScheduler{}
	rec := &recorder{}
	e := New(Config{
		Questions: qs,
		Scheduler: sched,
		Rand:      rand.New(rand.NewPCG(42, 1)),
		Now:       func() time.Time { return time.Unix(1700000000, 0).Add(sched.now) },
		Hooks: Hooks{
			OnChange: func() { rec.changes++ },
			OnStatus: func(_, to Status) { rec.statuses = append(rec.statuses, to) },
			OnSound:  func(s Sound) { rec.sounds = append(rec.sounds, s) },
		},
	})

	return &harness{Engine: e, sched: sched, rec: rec}
}

// race drives the harness from Start into Playing.
func (h *harness) race(t *testing.T) {
	t.Helper()

	if h.Status() == StatusStart && !h.BeginLobby() {
		t.Fatalf("BeginLobby refused")
	}
	if !h.StartCountdown() {
		t.Fatalf("StartCountdown refused from %s", h.Status())
	}
	h.sched.Advance(4 * DefaultCountdownTick)
	if h.Status() != StatusPlaying {
		t.Fatalf("status = %s after countdown, want playing", h.Status())
	}
}

func (h *harness) correct(id int) int {
	p := h.players[id-1]
	return h.queues[id-1][p.CurrentQuestionIndex].CorrectAnswer
}

func (h *harness) wrong(id int) int {
	p := h.players[id-1]
	q := h.queues[id-1][p.CurrentQuestionIndex]
	return (q.CorrectAnswer + 1) % len(q.Options)
}

func TestInitialState(t *testing.T) {
	h := newHarness(t, nil)

	snap := h.Snapshot()
	if snap.Status != StatusStart {
		t.Errorf("status = %s, want start", snap.Status)
	}
	if len(snap.Players) != 0 {
		t.Errorf("players exist before the lobby: %d", len(snap.Players))
	}
	if snap.WinningScore != DefaultWinningScore {
		t.Errorf("winning score = %d, want %d", snap.WinningScore, DefaultWinningScore)
	}
	if snap.QuestionCount != len(questions.Default()) {
		t.Errorf("question count = %d, want bundled defaults", snap.QuestionCount)
	}
}

func TestBeginLobbyCreatesRoster(t *testing.T) {
	h := newHarness(t, numbered(5))

	if !h.BeginLobby() {
		t.Fatalf("BeginLobby refused")
	}
	if h.BeginLobby() {
		t.Errorf("BeginLobby accepted twice")
	}

	snap := h.Snapshot()
	if len(snap.Players) != PlayerCount {
		t.Fatalf("roster size = %d, want %d", len(snap.Players), PlayerCount)
	}
	for i, p := range snap.Players {
		if p.ID != i+1 || p.Name != defaultName(i+1) || p.Score != 0 || p.CurrentQuestionIndex != 0 {
			t.Errorf("slot %d = %+v", i, p)
		}
		if p.Color != Colors[i] {
			t.Errorf("slot %d color = %s, want %s", i, p.Color, Colors[i])
		}
	}
}

func TestRenamePlayer(t *testing.T) {
	h := newHarness(t, numbered(5))
	h.BeginLobby()

	if !h.RenamePlayer(2, "ExtremelyLongDriverNameHere") {
		t.Fatalf("rename refused in lobby")
	}
	if got := h.players[1].Name; got != "ExtremelyLongDr" {
		t.Errorf("name = %q, want %q", got, "ExtremelyLongDr")
	}

	h.RenamePlayer(3, "Sékolah Wiradesa 1")
	if got := []rune(h.players[2].Name); len(got) != MaxNameLength {
		t.Errorf("multi-byte name truncated to %d runes, want %d", len(got), MaxNameLength)
	}

	if h.RenamePlayer(0, "x") || h.RenamePlayer(5, "x") {
		t.Errorf("rename accepted an unknown slot")
	}

	h.race(t)
	if h.RenamePlayer(1, "Late") {
		t.Errorf("rename accepted during the race")
	}
	if h.players[0].Name != "Player 1" {
		t.Errorf("name changed during race: %q", h.players[0].Name)
	}
}

func TestCountdownSequence(t *testing.T) {
	h := newHarness(t, numbered(5))
	h.BeginLobby()
	h.StartCountdown()

	want := []string{"3", "2", "1", "GO!"}
	for i, label := range want {
		if h.Status() != StatusCountdown {
			t.Fatalf("step %d: status = %s, want countdown", i, h.Status())
		}
		if got := CountdownLabel(h.Countdown()); got != label {
			t.Fatalf("step %d: countdown = %s, want %s", i, got, label)
		}
		h.sched.Advance(DefaultCountdownTick)
	}

	if h.Status() != StatusPlaying {
		t.Fatalf("status = %s after GO tick, want playing", h.Status())
	}
	if h.sched.Pending() != 0 {
		t.Errorf("%d timers still pending after countdown", h.sched.Pending())
	}

	h.sched.Advance(10 * DefaultCountdownTick)
	plays := 0
	for _, s := range h.rec.statuses {
		if s == StatusPlaying {
			plays++
		}
	}
	if plays != 1 {
		t.Errorf("entered playing %d times, want exactly once", plays)
	}
}

func TestCountdownCancelledOnReturnToMenu(t *testing.T) {
	h := newHarness(t, numbered(5))
	h.BeginLobby()
	h.StartCountdown()
	h.sched.Advance(DefaultCountdownTick + DefaultCountdownTick/2)

	if !h.ReturnToMenu() {
		t.Fatalf("ReturnToMenu refused during countdown")
	}
	if h.sched.Pending() != 0 {
		t.Fatalf("%d timers pending after leaving countdown", h.sched.Pending())
	}

	h.BeginLobby()
	h.sched.Advance(10 * DefaultCountdownTick)
	if h.Status() != StatusLobby {
		t.Fatalf("stale countdown moved the lobby to %s", h.Status())
	}
}

func TestStartCountdownOnlyFromLobbyOrFinished(t *testing.T) {
	h := newHarness(t, numbered(5))

	if h.StartCountdown() {
		t.Errorf("countdown started from start")
	}

	h.race(t)
	if h.StartCountdown() {
		t.Errorf("countdown started while playing")
	}
}

func TestScoringScenario(t *testing.T) {
	h := newHarness(t, numbered(6))
	if !h.SetWinningScore(3) {
		t.Fatalf("SetWinningScore refused in start")
	}
	h.race(t)

	for i := 0; i < 3; i++ {
		h.SubmitAnswer(2, h.wrong(2))
		h.SubmitAnswer(1, h.correct(1))
	}

	if h.Status() != StatusFinished {
		t.Fatalf("status = %s, want finished", h.Status())
	}

	w, ok := h.Winner()
	if !ok || w.ID != 1 {
		t.Fatalf("winner = %+v (%v), want player 1", w, ok)
	}
	if h.players[0].Score != 3 || h.players[1].Score != 0 {
		t.Errorf("scores = %d/%d, want 3/0", h.players[0].Score, h.players[1].Score)
	}

	snap := h.Snapshot()
	if snap.Winner == nil || snap.Winner.ID != 1 {
		t.Errorf("snapshot winner = %+v", snap.Winner)
	}
}

func TestAnswerEffects(t *testing.T) {
	h := newHarness(t, numbered(3))
	h.race(t)

	h.rec.sounds = nil
	h.SubmitAnswer(1, h.wrong(1))
	if h.players[0].Score != 0 || h.players[0].CurrentQuestionIndex != 1 {
		t.Fatalf("after wrong: %+v", *h.players[0])
	}
	if !slices.Equal(h.rec.sounds, []Sound{SoundWrong}) {
		t.Errorf("wrong answer sounds = %v", h.rec.sounds)
	}
	if h.players[0].advancing {
		t.Errorf("wrong answer raised the advance flag")
	}

	h.rec.sounds = nil
	h.SubmitAnswer(1, h.correct(1))
	if h.players[0].Score != 1 || h.players[0].CurrentQuestionIndex != 2 {
		t.Fatalf("after correct: %+v", *h.players[0])
	}
	if !slices.Equal(h.rec.sounds, []Sound{SoundCorrect, SoundMove}) {
		t.Errorf("correct answer sounds = %v", h.rec.sounds)
	}

	// Wraps back to the first question.
	h.SubmitAnswer(1, h.wrong(1))
	if h.players[0].CurrentQuestionIndex != 0 {
		t.Errorf("index = %d after wrapping, want 0", h.players[0].CurrentQuestionIndex)
	}

	for _, p := range h.players[1:] {
		if p.Score != 0 || p.CurrentQuestionIndex != 0 {
			t.Errorf("player %d changed by someone else's answers: %+v", p.ID, *p)
		}
	}
}

func TestSubmitIgnoredOutsidePlaying(t *testing.T) {
	h := newHarness(t, numbered(3))

	if h.SubmitAnswer(1, 2) {
		t.Errorf("answer accepted in start")
	}
	if h.Status() != StatusStart || len(h.rec.sounds) != 0 || h.rec.changes != 0 {
		t.Errorf("ignored answer had effects: status=%s sounds=%v changes=%d",
			h.Status(), h.rec.sounds, h.rec.changes)
	}

	h.BeginLobby()
	if h.SubmitAnswer(1, 0) {
		t.Errorf("answer accepted in lobby")
	}

	h.race(t)
	if h.SubmitAnswer(9, 0) {
		t.Errorf("answer accepted for unknown player")
	}
}

func TestFinishedIgnoresFurtherAnswers(t *testing.T) {
	h := newHarness(t, numbered(3))
	h.SetWinningScore(1)
	h.race(t)

	h.SubmitAnswer(3, h.correct(3))
	if h.Status() != StatusFinished {
		t.Fatalf("status = %s, want finished", h.Status())
	}

	before := *h.players[1]
	if h.SubmitAnswer(2, h.correct(2)) {
		t.Errorf("answer accepted after finish")
	}
	if h.players[1].Score != before.Score || h.players[1].CurrentQuestionIndex != before.CurrentQuestionIndex {
		t.Errorf("player 2 changed after finish")
	}
	if w, _ := h.Winner(); w.ID != 3 {
		t.Errorf("winner = %d, want 3", w.ID)
	}
}

func TestWinnerTieBreaksByRosterOrder(t *testing.T) {
	h := newHarness(t, numbered(3))
	h.race(t)

	h.players[1].Score = 4
	h.players[2].Score = 4
	h.players[3].Score = 2
	h.finish()

	if w, _ := h.Winner(); w.ID != 2 {
		t.Fatalf("winner = %d, want 2", w.ID)
	}
}

func TestRematch(t *testing.T) {
	h := newHarness(t, numbered(8))
	h.SetWinningScore(2)
	h.race(t)
	first := h.Snapshot().RaceID

	h.SubmitAnswer(4, h.correct(4))
	h.SubmitAnswer(4, h.correct(4))
	if h.Status() != StatusFinished {
		t.Fatalf("status = %s, want finished", h.Status())
	}

	h.race(t)
	snap := h.Snapshot()
	if snap.RaceID == "" || snap.RaceID == first {
		t.Errorf("rematch race id = %q, first = %q", snap.RaceID, first)
	}
	for _, p := range snap.Players {
		if p.Score != 0 || p.CurrentQuestionIndex != 0 {
			t.Errorf("player %d not reset: %+v", p.ID, p)
		}
	}
	for i, q := range h.queues {
		if len(q) != 8 {
			t.Errorf("queue %d has %d questions", i, len(q))
		}
	}
}

func TestReturnToMenuFromFinished(t *testing.T) {
	h := newHarness(t, numbered(3))
	h.SetWinningScore(1)
	h.race(t)
	h.SubmitAnswer(1, h.correct(1))

	if !h.ReturnToMenu() {
		t.Fatalf("ReturnToMenu refused")
	}
	if h.Status() != StatusStart || len(h.Snapshot().Players) != 0 {
		t.Fatalf("roster kept after returning to menu")
	}
	if h.ReturnToMenu() {
		t.Errorf("ReturnToMenu accepted in start")
	}
	if h.sched.Pending() != 0 {
		t.Errorf("%d timers pending after returning to menu", h.sched.Pending())
	}
}

func TestAdvanceFlag(t *testing.T) {
	h := newHarness(t, numbered(10))
	h.race(t)

	h.SubmitAnswer(1, h.correct(1))
	if !h.Snapshot().Players[0].IsAdvancing {
		t.Fatalf("flag not raised")
	}

	h.sched.Advance(500 * time.Millisecond)
	h.SubmitAnswer(2, h.correct(2))
	h.SubmitAnswer(1, h.correct(1))

	// 800ms after the first answer: the retrigger restarted player 1's window.
	h.sched.Advance(300 * time.Millisecond)
	snap := h.Snapshot()
	if !snap.Players[0].IsAdvancing || !snap.Players[1].IsAdvancing {
		t.Fatalf("flags cleared early: p1=%v p2=%v", snap.Players[0].IsAdvancing, snap.Players[1].IsAdvancing)
	}

	h.sched.Advance(500 * time.Millisecond)
	snap = h.Snapshot()
	if snap.Players[0].IsAdvancing || snap.Players[1].IsAdvancing {
		t.Fatalf("flags still raised: p1=%v p2=%v", snap.Players[0].IsAdvancing, snap.Players[1].IsAdvancing)
	}
}

func TestSetWinningScoreRules(t *testing.T) {
	h := newHarness(t, numbered(3))

	if h.SetWinningScore(0) || h.SetWinningScore(-3) {
		t.Errorf("non-positive target accepted")
	}

	h.BeginLobby()
	if !h.SetWinningScore(15) {
		t.Errorf("target refused in lobby")
	}

	h.StartCountdown()
	if h.SetWinningScore(5) {
		t.Errorf("target accepted during countdown")
	}
	h.sched.Advance(4 * DefaultCountdownTick)
	if h.SetWinningScore(5) {
		t.Errorf("target accepted during race")
	}
	if h.WinningScore() != 15 {
		t.Errorf("winning score = %d, want 15", h.WinningScore())
	}
}

func TestSetQuestionsKeepsRunningRace(t *testing.T) {
	h := newHarness(t, numbered(6))
	h.race(t)

	for i := 0; i < 5; i++ {
		h.SubmitAnswer(1, h.wrong(1))
	}

	if h.SetQuestions(nil) {
		t.Errorf("empty set accepted")
	}
	if !h.SetQuestions(numbered(2)) {
		t.Fatalf("replacement set refused")
	}

	// Player 1 sits at index 5 of the old queue; answering must stay in range.
	h.SubmitAnswer(1, h.wrong(1))
	if h.players[0].CurrentQuestionIndex != 0 {
		t.Errorf("index = %d, want 0", h.players[0].CurrentQuestionIndex)
	}
	if h.QuestionCount() != 2 {
		t.Errorf("next race question count = %d, want 2", h.QuestionCount())
	}
}

func TestIndicesStayInRangeAndScoresNeverDrop(t *testing.T) {
	h := newHarness(t, numbered(7))
	h.SetWinningScore(1000)
	h.race(t)

	r := rand.New(rand.NewPCG(9, 9))
	prev := make([]int, PlayerCount)
	for step := 0; step < 2000; step++ {
		id := r.IntN(PlayerCount) + 1
		h.SubmitAnswer(id, r.IntN(4))

		for i, p := range h.players {
			if p.CurrentQuestionIndex < 0 || p.CurrentQuestionIndex >= len(h.queues[i]) {
				t.Fatalf("step %d: player %d index %d out of range", step, p.ID, p.CurrentQuestionIndex)
			}
			if p.Score < prev[i] {
				t.Fatalf("step %d: player %d score dropped %d -> %d", step, p.ID, prev[i], p.Score)
			}
			prev[i] = p.Score
		}
	}
}

func TestAudioSignal(t *testing.T) {
	h := newHarness(t, numbered(3))
	h.SetWinningScore(4)

	if h.Audio().EngineActive {
		t.Errorf("engine active in start")
	}

	h.BeginLobby()
	h.StartCountdown()
	if !h.Audio().EngineActive {
		t.Errorf("engine inactive during countdown")
	}

	h.sched.Advance(4 * DefaultCountdownTick)
	h.SubmitAnswer(2, h.correct(2))
	if a := h.Audio(); !a.EngineActive || a.Intensity != 0.25 {
		t.Errorf("audio = %+v, want active at 0.25", a)
	}

	for i := 0; i < 3; i++ {
		h.SubmitAnswer(2, h.correct(2))
	}
	if a := h.Audio(); a.EngineActive || a.Intensity != 1 {
		t.Errorf("audio = %+v after finish, want inactive at 1", a)
	}
}

func TestIntensity(t *testing.T) {
	cases := []struct {
		max, target int
		want        float64
	}{
		{0, 10, 0},
		{5, 10, 0.5},
		{10, 10, 1},
		{12, 10, 1},
		{3, 0, 0},
	}
	for _, tc := range cases {
		if got := Intensity(tc.max, tc.target); got != tc.want {
			t.Errorf("Intensity(%d, %d) = %v, want %v", tc.max, tc.target, got, tc.want)
		}
	}
}

func TestSnapshotHidesAnswers(t *testing.T) {
	h := newHarness(t, numbered(3))
	h.race(t)

	for i, p := range h.Snapshot().Players {
		if p.Question == nil {
			t.Fatalf("player %d has no question while playing", p.ID)
		}
		want := h.queues[i][0]
		if p.Question.ID != want.ID || len(p.Question.Options) != len(want.Options) {
			t.Errorf("player %d shown %+v, want %s", p.ID, p.Question, want.ID)
		}
	}
}

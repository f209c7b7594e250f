// Descriptive Race
//
// Four players share one screen and race their cars by answering questions
// about descriptive texts. Every correct answer moves a car one step; the
// first player to reach the winning score takes the race.
//
// Features:
// - One session per ID: /race/:session and /race/:session/ws
// - A single goroutine per session owns the race engine; timers and
//   question loads are posted back into it
// - Every connected screen receives the full state after each change, plus
//   one-shot sound cues
// - Question sets reload per session from a spreadsheet id, the question
//   bank, or the bundled defaults
// - Sessions auto-reaped after a configurable idle timeout
// - Random 8-char session IDs via crypto/rand, with server-side collision check
// - In-browser QR button to open the current session elsewhere, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"

	"github.com/mokhamadniam35-cmd/Descriptive-Race/games/race"
	"github.com/mokhamadniam35-cmd/Descriptive-Race/questions"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Messages coming from clients
type IntentMessage struct {
	Type   string  `json:"type"`             // "begin", "rename", "start", "answer", "menu", "winning_score", "source"
	Player int     `json:"player,omitempty"` // rename / answer
	Name   string  `json:"name,omitempty"`   // rename
	Option *int    `json:"option,omitempty"` // answer
	Score  int     `json:"score,omitempty"`  // winning_score
	Source *string `json:"source,omitempty"` // source
}

// StateMessage carries everything a screen renders. It is sent on connect
// and after every change.
type StateMessage struct {
	Type                string        `json:"type"` // "state"
	Session             string        `json:"session"`
	Source              string        `json:"source"`
	Loading             bool          `json:"loading"`
	WinningScoreOptions []int         `json:"winningScoreOptions"`
	State               race.Snapshot `json:"state"`
}

// SoundMessage is a one-shot audio cue.
type SoundMessage struct {
	Type  string     `json:"type"` // "sound"
	Sound race.Sound `json:"sound"`
}

type raceClient struct {
	conn     *websocket.Conn
	send     chan any
	deviceID string
	limiter  *rate.Limiter
}

type intentRequest struct {
	client *raceClient
	msg    IntentMessage
}

type raceHub struct {
	id     string
	cfg    *Config
	engine *race.Engine
	loader *questions.Loader

	clients map[*raceClient]bool

	register chan *raceClient
	unreg    chan *raceClient
	intents  chan intentRequest
	inbox    chan func()
	quit     chan struct{}
	stopOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	// Owned by the run loop.
	source  string
	loading bool
	loadSeq uint64
	dirty   bool

	mu         sync.RWMutex
	lastActive time.Time
	latest     StateMessage
}

func newRaceHub(ctx context.Context, cfg *Config, sessionID string, loader *questions.Loader) *raceHub {
	now := time.Now()
	ctx, cancel := context.WithCancel(ctx)

	h := &raceHub{
		id:         sessionID,
		cfg:        cfg,
		loader:     loader,
		clients:    make(map[*raceClient]bool),
		register:   make(chan *raceClient),
		unreg:      make(chan *raceClient),
		intents:    make(chan intentRequest),
		inbox:      make(chan func(), 16),
		quit:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		lastActive: now,
	}

	h.engine = race.New(race.Config{
		WinningScore:  cfg.winningScore,
		Scheduler:     race.SchedulerFunc(h.afterFunc),
		CountdownTick: cfg.countdownTick,
		Hooks: race.Hooks{
			OnChange: h.markDirty,
			OnStatus: h.statusChanged,
			OnSound:  h.playSound,
		},
	})
	h.latest = h.buildState()

	return h
}

func (h *raceHub) run() {
	h.reload("")
	h.flush()

	for {
		select {
		case c := <-h.register:
			h.touch()
			h.clients[c] = true
			raceConnectionsActive.Inc()

			h.mu.RLock()
			state := h.latest
			h.mu.RUnlock()

			h.sendTo(c, state)

		case c := <-h.unreg:
			h.touch()
			h.drop(c)

		case req := <-h.intents:
			h.touch()
			h.apply(req)

		case f := <-h.inbox:
			f()

		case <-h.quit:
			h.shutdown()
			return
		}

		h.flush()
	}
}

// afterFunc schedules f on the run loop.
func (h *raceHub) afterFunc(d time.Duration, f func()) race.Timer {
	return time.AfterFunc(d, func() {
		h.post(f)
	})
}

func (h *raceHub) post(f func()) {
	select {
	case h.inbox <- f:
	case <-h.quit:
	}
}

func (h *raceHub) stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

func (h *raceHub) shutdown() {
	h.cancel()
	h.engine.ReturnToMenu()

	for c := range h.clients {
		h.drop(c)
	}
}

func (h *raceHub) apply(req intentRequest) {
	msg := req.msg

	var ok bool
	switch msg.Type {
	case "begin":
		ok = h.engine.BeginLobby()
	case "rename":
		ok = h.engine.RenamePlayer(msg.Player, msg.Name)
	case "start":
		ok = h.engine.StartCountdown()
	case "answer":
		ok = msg.Option != nil && h.engine.SubmitAnswer(msg.Player, *msg.Option)
	case "menu":
		ok = h.engine.ReturnToMenu()
	case "winning_score":
		ok = h.engine.SetWinningScore(msg.Score)
	case "source":
		ok = msg.Source != nil && h.changeSource(*msg.Source)
	default:
		raceIntentsDropped.WithLabelValues("unknown").Inc()
		return
	}

	if !ok {
		raceIntentsDropped.WithLabelValues("ignored").Inc()
		return
	}

	switch msg.Type {
	case "rename":
		logf(h.cfg, "RACES: Device %s renamed player %d to %q in %s", req.client.deviceID, msg.Player, msg.Name, h.id)
	case "answer":
		logf(h.cfg, "RACES: Device %s answered %d for player %d in %s", req.client.deviceID, *msg.Option, msg.Player, h.id)
	}
}

var sheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([A-Za-z0-9_-]+)`)
var sourceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// parseSourceID accepts a bare spreadsheet id or a full spreadsheet link.
// An empty result selects the default sources.
func parseSourceID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if m := sheetURLPattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if !sourceIDPattern.MatchString(s) {
		return "", false
	}
	return s, true
}

func (h *raceHub) changeSource(raw string) bool {
	id, ok := parseSourceID(raw)
	if !ok {
		return false
	}

	logf(h.cfg, "RACES: Question source for %s set to %q", h.id, id)
	h.reload(id)
	return true
}

// reload fetches the question set for source off the run loop. Only the
// most recent request is applied.
func (h *raceHub) reload(source string) {
	h.loadSeq++
	seq := h.loadSeq

	h.source = source
	h.loading = true
	h.dirty = true

	go func() {
		start := time.Now()
		qs := h.loader.Load(h.ctx, source)
		questionLoadDuration.Observe(time.Since(start).Seconds())

		h.post(func() {
			if seq != h.loadSeq {
				return
			}

			h.loading = false
			h.dirty = true
			h.engine.SetQuestions(qs)

			logf(h.cfg, "RACES: Loaded %d questions for %s in %s", len(qs), h.id, time.Since(start).Round(time.Millisecond))
		})
	}()
}

func (h *raceHub) markDirty() {
	h.dirty = true
}

func (h *raceHub) statusChanged(from, to race.Status) {
	logf(h.cfg, "RACES: Session %s moved from %s to %s", h.id, from, to)

	switch to {
	case race.StatusPlaying:
		racesStarted.Inc()
	case race.StatusFinished:
		racesFinished.Inc()
		if w, ok := h.engine.Winner(); ok {
			logf(h.cfg, "RACES: %q won in %s with %d points", w.Name, h.id, w.Score)
		}
	}
}

func (h *raceHub) playSound(s race.Sound) {
	switch s {
	case race.SoundCorrect:
		raceAnswers.WithLabelValues("correct").Inc()
	case race.SoundWrong:
		raceAnswers.WithLabelValues("wrong").Inc()
	}

	h.broadcast(SoundMessage{
		Type:  "sound",
		Sound: s,
	})
}

func (h *raceHub) buildState() StateMessage {
	return StateMessage{
		Type:                "state",
		Session:             h.id,
		Source:              h.source,
		Loading:             h.loading,
		WinningScoreOptions: race.WinningScoreOptions,
		State:               h.engine.Snapshot(),
	}
}

// flush sends one state message per loop iteration, however many changes
// the iteration applied.
func (h *raceHub) flush() {
	if !h.dirty {
		return
	}
	h.dirty = false

	state := h.buildState()

	h.mu.Lock()
	h.latest = state
	h.mu.Unlock()

	h.broadcast(state)
}

func (h *raceHub) broadcast(msg any) {
	for c := range h.clients {
		h.sendTo(c, msg)
	}
}

func (h *raceHub) sendTo(c *raceClient, msg any) {
	select {
	case c.send <- msg:
	default:
		h.drop(c)
	}
}

func (h *raceHub) drop(c *raceClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)
	raceConnectionsActive.Dec()
}

func (h *raceHub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *raceHub) state() StateMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.latest
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const deviceCookieName = "race_device"

func getOrSetDeviceID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(deviceCookieName); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     deviceCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by session ID, so each
// $path/$session is its own isolated race.
type GameManager struct {
	mu          sync.Mutex
	ctx         context.Context
	hubs        map[string]*raceHub
	idleTimeout time.Duration
	loader      *questions.Loader
}

func newGameManager(ctx context.Context, idleTimeout time.Duration, loader *questions.Loader) *GameManager {
	gm := &GameManager{
		ctx:         ctx,
		hubs:        make(map[string]*raceHub),
		idleTimeout: idleTimeout,
		loader:      loader,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, sessionID string) *raceHub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[sessionID]; ok {
		return hub
	}

	hub := newRaceHub(gm.ctx, cfg, sessionID, gm.loader)
	gm.hubs[sessionID] = hub
	raceSessionsActive.Inc()
	go hub.run()

	logf(cfg, "RACES: Opened session %s", sessionID)

	return hub
}

func (gm *GameManager) lookupHub(sessionID string) (*raceHub, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	hub, ok := gm.hubs[sessionID]
	return hub, ok
}

const sessionIDLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,32}$`)

// newGameID generates a crypto-random session ID and ensures it doesn't
// collide with existing sessions.
func (gm *GameManager) newGameID() string {
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = sessionIDLetters[int(buf[i])%len(sessionIDLetters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			gm.closeAll()
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

// reap stops every hub last active before cutoff and returns how many it stopped.
func (gm *GameManager) reap(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	n := 0
	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			raceSessionsActive.Dec()
			hub.stop()
			n++
		}
	}

	return n
}

func (gm *GameManager) closeAll() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		delete(gm.hubs, id)
		raceSessionsActive.Dec()
		hub.stop()
	}
}

// WebSocket handler that picks the hub based on :session
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		sessionID := ps.ByName("session")
		if !sessionIDPattern.MatchString(sessionID) {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		deviceID := getOrSetDeviceID(w, r)

		hub := gm.getHub(cfg, sessionID)

		conn, err := upgrader.Upgrade(w, r, w.Header())
		if err != nil {
			logf(cfg, "RACES: Upgrade for %s failed: %v", realIP(r), err)
			return
		}

		client := &raceClient{
			conn:     conn,
			send:     make(chan any, 32),
			deviceID: deviceID,
			limiter:  rate.NewLimiter(rate.Limit(cfg.intentRate), cfg.intentBurst),
		}

		select {
		case hub.register <- client:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		logf(cfg, "RACES: Device %s connected to %s from %s", deviceID, sessionID, realIP(r))

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *raceClient) readPump(h *raceHub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg IntentMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			raceIntentsDropped.WithLabelValues("rate_limit").Inc()
			continue
		}

		select {
		case h.intents <- intentRequest{client: c, msg: msg}:
		case <-h.quit:
			return
		}
	}
}

func (c *raceClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveRaceState returns the latest state of a running session as JSON.
func serveRaceState(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		hub, ok := gm.lookupHub(ps.ByName("session"))
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}

		data, err := json.Marshal(hub.state())
		if err != nil {
			errs <- err
			http.Error(w, "state unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: State of %s (%s) to %s in %s",
			hub.id,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// QR handler: generates a PNG QR code for the current session URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !sessionIDPattern.MatchString(ps.ByName("session")) {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}

		// We are at /.../:session/qr; strip trailing "/qr" to get the session URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func serveRaceIndex(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !sessionIDPattern.MatchString(ps.ByName("session")) {
			http.NotFound(w, r)
			return
		}

		data, err := assets.ReadFile("assets/race/index.html")
		if err != nil {
			errs <- err
			http.Error(w, "client unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetDeviceID(w, r)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

// redirectNewGame handles GET /path by generating a new random session ID
// (with server-side collision detection) and redirecting to /path/:session.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		sessionID := gm.newGameID()
		logf(cfg, "RACES: Created session %s%s/%s", cfg.prefix, path, sessionID)
		http.Redirect(w, r, cfg.prefix+path+"/"+sessionID, http.StatusTemporaryRedirect)
	}
}

// registerRaceGame sets up routes so that:
//   - $path                   → redirects to a new random session (8-char ID)
//   - $path/:session          → HTML client
//   - $path/:session/ws       → WebSocket for that session
//   - $path/:session/state    → JSON state of that session
//   - $path/:session/qr       → PNG QR code for that session URL
func registerRaceGame(ctx context.Context, cfg *Config, path string, mux *httprouter.Router, loader *questions.Loader, errs chan<- error) *GameManager {
	gm := newGameManager(ctx, cfg.sessionTimeout, loader)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:session", serveRaceIndex(cfg, errs))

	mux.GET(cfg.prefix+path+"/:session/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:session/state", serveRaceState(cfg, gm, errs))

	mux.GET(cfg.prefix+path+"/:session/qr", qrHandler(cfg))

	return gm
}

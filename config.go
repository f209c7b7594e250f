package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mokhamadniam35-cmd/Descriptive-Race/games/race"
)

type Config struct {
	bind           string
	port           int
	prefix         string
	profile        bool
	metrics        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	winningScore int
	questionsURL string
	sheetURL     string
	databaseURL  string
	questionSet  string
	redisAddr    string
	cacheTTL     time.Duration
	intentRate   float64
	intentBurst  int
	corsOrigins  []string

	// Zero uses the engine default.
	countdownTick time.Duration
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.winningScore < 1 {
		return fmt.Errorf("invalid winning score (must be at least 1): %d", c.winningScore)
	}
	if c.intentRate <= 0 || c.intentBurst < 1 {
		return fmt.Errorf("invalid intent limit (rate must be positive, burst at least 1): %v/%d", c.intentRate, c.intentBurst)
	}
	if c.cacheTTL < 0 {
		return fmt.Errorf("invalid cache ttl: %s", c.cacheTTL)
	}
	if c.questionsURL != "" {
		if u, err := url.Parse(c.questionsURL); err != nil || u.Host == "" {
			return fmt.Errorf("invalid --questions-url: %q", c.questionsURL)
		}
	}
	if c.sheetURL != "" && strings.Count(c.sheetURL, "%s") != 1 {
		return fmt.Errorf("--sheet-url must contain exactly one %%s for the spreadsheet id: %q", c.sheetURL)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RACE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "descriptive-race",
		Short:         "A four-player quiz race on descriptive texts, served to a single shared screen.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: RACE_BIND)")
	fs.DurationVar(&cfg.cacheTTL, "cache-ttl", 24*time.Hour, "how long fetched question sets stay in redis (env: RACE_CACHE_TTL)")
	fs.StringSliceVar(&cfg.corsOrigins, "cors-origin", nil, "origin allowed to read session state cross-origin, repeatable (env: RACE_CORS_ORIGIN)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres dsn for the question bank (env: RACE_DATABASE_URL)")
	fs.IntVar(&cfg.intentBurst, "intent-burst", 20, "burst of messages accepted per connection (env: RACE_INTENT_BURST)")
	fs.Float64Var(&cfg.intentRate, "intent-rate", 10, "messages per second accepted per connection (env: RACE_INTENT_RATE)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "expose prometheus metrics at /metrics (env: RACE_METRICS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: RACE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: RACE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: RACE_PROFILE)")
	fs.StringVar(&cfg.questionSet, "question-set", "default", "question bank set to load from the database (env: RACE_QUESTION_SET)")
	fs.StringVar(&cfg.questionsURL, "questions-url", "", "url of a json feed of extra questions (env: RACE_QUESTIONS_URL)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "", "redis address used to cache fetched questions (env: RACE_REDIS_ADDR)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle race sessions are ended (env: RACE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.sheetURL, "sheet-url", "", "csv export url template for spreadsheets, %s is the id (env: RACE_SHEET_URL)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: RACE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: RACE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: RACE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: RACE_VERSION)")
	fs.IntVar(&cfg.winningScore, "winning-score", race.DefaultWinningScore, "points needed to win a new session (env: RACE_WINNING_SCORE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("descriptive-race v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

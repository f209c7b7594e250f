package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mokhamadniam35-cmd/Descriptive-Race/questions"
)

// newQuestionLoader builds the loader shared by every session from the
// configured sources. The returned func releases database and cache
// connections. An unreachable question bank leaves the bundled questions in
// place.
func newQuestionLoader(ctx context.Context, cfg *Config) (*questions.Loader, func()) {
	client := &http.Client{Timeout: timeout}
	logger := func(format string, args ...any) {
		logf(cfg, format, args...)
	}

	var closers []func() error

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logf(cfg, "QUESTIONS: Closing source failed: %v", err)
			}
		}
	}

	var cache questions.Cache
	if cfg.redisAddr != "" {
		rc := questions.NewRedisCache(cfg.redisAddr)
		closers = append(closers, rc.Close)
		cache = rc

		logf(cfg, "QUESTIONS: Caching remote questions in redis at %s for %s", cfg.redisAddr, cfg.cacheTTL)
	}

	cached := func(key string, p questions.Provider) questions.Provider {
		if cache == nil {
			return p
		}
		return &questions.Cached{
			Key:      "race:questions:" + key,
			TTL:      cfg.cacheTTL,
			Cache:    cache,
			Provider: p,
			Logf:     logger,
		}
	}

	loader := &questions.Loader{
		Timeout: timeout,
		Logf:    logger,
		Sheet: func(id string) questions.Provider {
			return cached("sheet:"+id, &questions.Spreadsheet{
				ID:     id,
				URL:    cfg.sheetURL,
				Client: client,
			})
		},
	}

	if cfg.questionsURL != "" {
		loader.Extras = cached("feed:"+cfg.questionsURL, &questions.Feed{
			URL:    cfg.questionsURL,
			Client: client,
		})
	}

	if cfg.databaseURL != "" {
		if bank, err := openBank(ctx, cfg, logger, &closers); err != nil {
			logf(cfg, "QUESTIONS: Question bank unavailable, using bundled questions: %v", err)
		} else {
			loader.Base = bank

			logf(cfg, "QUESTIONS: Using question bank set %q", cfg.questionSet)
		}
	}

	return loader, cleanup
}

// openBank connects to the question bank and seeds an empty set with the
// bundled questions.
func openBank(ctx context.Context, cfg *Config, logger func(string, ...any), closers *[]func() error) (*questions.Bank, error) {
	db, err := questions.OpenBank(cfg.databaseURL, logger)
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		*closers = append(*closers, sqlDB.Close)
	}

	bank := &questions.Bank{DB: db, Set: cfg.questionSet}

	seedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := bank.Seed(seedCtx, questions.Default()); err != nil {
		return nil, fmt.Errorf("seed question set %q: %w", cfg.questionSet, err)
	}

	return bank, nil
}

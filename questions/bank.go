package questions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Record is a question bank row. Rows of one set are played in Position order.
type Record struct {
	ID            uint     `gorm:"primaryKey"`
	SetName       string   `gorm:"index;not null"`
	Position      int      `gorm:"not null"`
	Text          string   `gorm:"not null"`
	Options       []string `gorm:"serializer:json;not null"`
	CorrectAnswer int      `gorm:"not null"`
}

func (Record) TableName() string {
	return "race_questions"
}

func (r Record) Question() Question {
	return Question{
		ID:            strconv.FormatUint(uint64(r.ID), 10),
		Text:          r.Text,
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
	}
}

// printfFunc adapts a log function to gorm's logger.Writer.
type printfFunc func(format string, args ...any)

func (f printfFunc) Printf(format string, args ...any) {
	f("QUESTIONS: "+format, args...)
}

func bankLogger(logf func(format string, args ...any)) logger.Interface {
	if logf == nil {
		return logger.Discard
	}

	return logger.New(printfFunc(logf), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// OpenBank connects to postgres and makes sure the question table exists.
// Database warnings and errors go to logf, which may be nil.
func OpenBank(dsn string, logf func(format string, args ...any)) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: bankLogger(logf),
	})
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate question bank: %w", err)
	}

	return db, nil
}

// Bank reads one named question set from the database.
type Bank struct {
	DB  *gorm.DB
	Set string
}

func (b *Bank) FetchQuestions(ctx context.Context) ([]Question, error) {
	var rows []Record
	err := b.DB.WithContext(ctx).
		Where("set_name = ?", b.Set).
		Order("position").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query question set %q: %w", b.Set, err)
	}

	qs := make([]Question, 0, len(rows))
	for _, r := range rows {
		qs = append(qs, r.Question())
	}

	return qs, nil
}

// Seed inserts qs as set when that set has no rows yet.
func (b *Bank) Seed(ctx context.Context, qs []Question) error {
	var n int64
	if err := b.DB.WithContext(ctx).Model(&Record{}).Where("set_name = ?", b.Set).Count(&n).Error; err != nil {
		return fmt.Errorf("count question set %q: %w", b.Set, err)
	}
	if n > 0 {
		return nil
	}

	rows := make([]Record, 0, len(qs))
	for i, q := range Sanitize(qs) {
		rows = append(rows, Record{
			SetName:       b.Set,
			Position:      i,
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	if len(rows) == 0 {
		return ErrNoQuestions
	}

	return b.DB.WithContext(ctx).Create(&rows).Error
}

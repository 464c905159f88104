// Package tracker implements the ticket workflow: tickets and their acks,
// expenses, media and documents, the grant tree above them, reports and
// CSV exchange.
package tracker

import (
	"context"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/config"
)

// DefaultImportRowLimit caps CSV imports for users without
// import_unlimited_rows
const DefaultImportRowLimit = 100

// Settings holds the deployment values the tracker services need
type Settings struct {
	Currency      string
	BaseURL       string
	MinWait       time.Duration
	StatutoryText string
	// ImportRowLimit of zero or less means unlimited
	ImportRowLimit int
	DocsPrefix     string
	// MediaTemplate is the wiki template put on media pages; empty
	// disables wiki edits
	MediaTemplate string
	InfoTemplate  string
	ThumbWidth    int
	ArticleBase   string
}

// SettingsFromConfig collects the tracker settings from the loaded config
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Currency:       cfg.Tracker.Currency,
		BaseURL:        cfg.Tracker.BaseURL,
		MinWait:        cfg.Tracker.MinWait(),
		StatutoryText:  cfg.Tracker.StatutoryText,
		ImportRowLimit: cfg.Tracker.ImportRowLimit,
		DocsPrefix:     cfg.Storage.DocsPrefix,
		MediaTemplate:  cfg.MediaWiki.Template,
		InfoTemplate:   cfg.MediaWiki.InfoTemplate,
		ThumbWidth:     cfg.MediaWiki.ThumbWidth,
		ArticleBase:    cfg.MediaWiki.ArticleBase,
	}
}

// TaskQueue schedules background work
type TaskQueue interface {
	Enqueue(ctx context.Context, name string, params any) error
	// EnqueueUnique skips the task when an identical one is pending
	EnqueueUnique(ctx context.Context, name string, params any) (bool, error)
}

// RowsInvalidator drops cached ticket listings
type RowsInvalidator interface {
	Invalidate(ctx context.Context, archived bool) error
}

// PageResolver looks up wiki page ids
type PageResolver interface {
	PageID(ctx context.Context, title string) (int64, error)
}

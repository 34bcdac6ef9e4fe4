package service

import (
	"context"
	"io"

	"github.com/torfstack/gcff/internal/config"
	"github.com/torfstack/gcff/internal/db"
	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/ui"
)

// History prints the newest journal entries. It needs no credentials.
func History(ctx context.Context, cfg config.Config, limit int, asJSON bool, out io.Writer) error {
	journal, err := db.Open(ctx, cfg.JournalPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logging.Debugf("Could not close journal: %s", err)
		}
	}()

	records, err := journal.List(ctx, limit)
	if err != nil {
		return err
	}
	if asJSON {
		if records == nil {
			records = []db.Record{}
		}
		return ui.JSON(out, records)
	}
	ui.History(out, records)
	return nil
}

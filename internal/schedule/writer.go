// Package schedule persists parsed guide programs as schedule entries.
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/repository"
	"github.com/guidesync/guidesync/pkg/xmltv"
)

// WriteResult reports what a write pass did. Skipped counts rows whose
// program id already existed; re-running a sync over the same feed is
// expected to skip everything.
type WriteResult struct {
	Inserted int64 `json:"inserted"`
	Skipped  int64 `json:"skipped"`
}

// Add accumulates another result into r.
func (r *WriteResult) Add(other WriteResult) {
	r.Inserted += other.Inserted
	r.Skipped += other.Skipped
}

// Writer converts programmes into schedule entries and bulk-inserts them
// with insert-if-absent semantics. There is no update path: the first
// write for a (channel, start) slot wins until a purge.
type Writer struct {
	repo      repository.ScheduleRepository
	batchSize int
	logger    *slog.Logger
}

// NewWriter creates a Writer. batchSize bounds how many programmes are
// buffered before an insert; values below 1 fall back to 500.
func NewWriter(repo repository.ScheduleRepository, batchSize int, logger *slog.Logger) *Writer {
	if batchSize < 1 {
		batchSize = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{repo: repo, batchSize: batchSize, logger: logger}
}

// BatchSize reports the insert batch size, so callers streaming
// programmes can buffer in matching chunks.
func (w *Writer) BatchSize() int {
	return w.batchSize
}

// Write persists the given programmes. Programmes that fail validation
// (no title, inverted times) are dropped and counted as skipped.
func (w *Writer) Write(ctx context.Context, programmes []*xmltv.Programme) (WriteResult, error) {
	var result WriteResult

	batch := make([]*models.ScheduleEntry, 0, w.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := w.repo.InsertBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("writing schedule batch: %w", err)
		}
		result.Inserted += inserted
		result.Skipped += int64(len(batch)) - inserted
		batch = batch[:0]
		return nil
	}

	for _, prog := range programmes {
		entry := EntryFromProgramme(prog)
		if err := entry.Validate(); err != nil {
			result.Skipped++
			continue
		}
		batch = append(batch, entry)
		if len(batch) >= w.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	w.logger.Debug("schedule write completed",
		slog.Int64("inserted", result.Inserted),
		slog.Int64("skipped", result.Skipped),
	)
	return result, nil
}

// EntryFromProgramme converts a parsed programme to a schedule entry
// with its derived program id.
func EntryFromProgramme(prog *xmltv.Programme) *models.ScheduleEntry {
	return &models.ScheduleEntry{
		ProgramID:   models.DeriveProgramID(prog.Channel, prog.Start),
		ChannelID:   prog.Channel,
		Start:       prog.Start,
		End:         prog.Stop,
		Title:       prog.Title,
		Description: prog.Description,
		Category:    prog.Category,
		Icon:        prog.Icon,
		Language:    prog.Language,
		IsLive:      prog.IsLive,
	}
}

package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/model"
	"github.com/Kosench/shortlink/internal/repository"
)

// LegacyEntry is one value of the legacy data.json snapshot, keyed by code.
type LegacyEntry struct {
	URL       string     `json:"url"`
	Clicks    int64      `json:"clicks"`
	CreatedAt legacyTime `json:"createdAt"`
}

// legacyTime accepts RFC 3339 strings or epoch milliseconds.
type legacyTime struct {
	time.Time
}

func (t *legacyTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
		t.Time = parsed.UTC()
		return nil
	}

	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

// ImportLegacy copies the snapshot at path into repo, but only when repo
// is empty. A missing file is not an error. It returns how many links were
// written.
func ImportLegacy(ctx context.Context, repo repository.LinkRepository, path string, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	if count > 0 {
		logger.Debug("store not empty, skipping legacy import", zap.Int64("links", count))
		return 0, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	links, skipped, err := ParseSnapshot(raw, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, entry := range skipped {
		logger.Warn("skipping unreadable legacy entry",
			zap.String("code", entry.Code),
			zap.Error(entry.Err))
	}
	if len(links) == 0 {
		return 0, nil
	}

	inserted, err := repo.InsertMany(ctx, links)
	if err != nil {
		return inserted, fmt.Errorf("failed to import links: %w", err)
	}

	logger.Info("migrated short links from legacy snapshot",
		zap.String("file", path),
		zap.Int("found", len(links)),
		zap.Int("inserted", inserted))

	return inserted, nil
}

// SkippedEntry is a snapshot entry that could not be decoded.
type SkippedEntry struct {
	Code string
	Err  error
}

// ParseSnapshot decodes a code → entry object one entry at a time, so a
// bad entry only loses itself. Entries without a URL are dropped; a
// missing createdAt becomes now.
func ParseSnapshot(raw []byte, now time.Time) ([]*model.Link, []SkippedEntry, error) {
	var snapshot map[string]json.RawMessage
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, nil, err
	}

	links := make([]*model.Link, 0, len(snapshot))
	var skipped []SkippedEntry
	for code, rawEntry := range snapshot {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}

		var entry LegacyEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			skipped = append(skipped, SkippedEntry{Code: code, Err: err})
			continue
		}
		if strings.TrimSpace(entry.URL) == "" {
			continue
		}

		createdAt := entry.CreatedAt.Time
		if createdAt.IsZero() {
			createdAt = now
		}
		clicks := entry.Clicks
		if clicks < 0 {
			clicks = 0
		}

		links = append(links, &model.Link{
			Code:      code,
			URL:       entry.URL,
			Clicks:    clicks,
			CreatedAt: createdAt,
		})
	}

	sort.Slice(links, func(i, j int) bool { return links[i].Code < links[j].Code })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Code < skipped[j].Code })
	return links, skipped, nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/SeamusWaldron/cubetimer"
	"github.com/SeamusWaldron/cubetimer/internal/config"
	"github.com/SeamusWaldron/cubetimer/internal/storage"
)

// getDBPath returns the database path from flag, config or default.
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return fileCfg.DBPath()
}

// getSessionName returns the session from flag or config.
func getSessionName() string {
	if sessionName != "" {
		return sessionName
	}
	if s := fileCfg.Session(); s != "" {
		return s
	}
	return storage.DefaultSession
}

func openDB() (*storage.DB, error) {
	db, err := storage.Open(getDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openStore opens the database and the selected session.
func openStore(ctx context.Context) (*storage.DB, *storage.SessionStore, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.OpenSession(ctx, db, getSessionName())
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, store, nil
}

// libraryOptions combines config file options with the CLI logger.
func libraryOptions(extra ...cubetimer.Option) []cubetimer.Option {
	opts := append(fileCfg.Options(), cubetimer.WithLogger(logger))
	return append(opts, extra...)
}

// resolveResultID maps "last" (or "-1", "-2", ...) to a result id.
func resolveResultID(results []cubetimer.Result, ref string) (string, error) {
	if len(results) == 0 {
		return "", fmt.Errorf("session has no results")
	}
	switch ref {
	case "last", "-1":
		return results[len(results)-1].ID, nil
	}
	var back int
	if _, err := fmt.Sscanf(ref, "-%d", &back); err == nil && back > 0 {
		if back > len(results) {
			return "", fmt.Errorf("session has only %d results", len(results))
		}
		return results[len(results)-back].ID, nil
	}
	// prefix match on ids, like short git hashes
	var match string
	for _, r := range results {
		if len(ref) >= 4 && len(r.ID) >= len(ref) && r.ID[:len(ref)] == ref {
			if match != "" {
				return "", fmt.Errorf("ambiguous result id %q", ref)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", cubetimer.ErrResultNotFound, ref)
	}
	return match, nil
}

func loadStateFile() (*config.StateFile, error) {
	sf, err := config.NewDefaultStateFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return sf, nil
}

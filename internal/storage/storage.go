// Package storage persists finished games in BadgerDB.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/benbeisheim/kingchess-backend/internal/board"
	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	resultPrefix = "result/"
)

var ErrNotFound = errors.New("result not found")

// GameRecord is a finished game.
type GameRecord struct {
	ID         string        `json:"id"`
	Winner     board.Color   `json:"winner"`
	Plies      int           `json:"plies"`
	Duration   time.Duration `json:"duration"`
	WhiteID    string        `json:"whiteId"`
	BlackID    string        `json:"blackId"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// Stats aggregates every stored result.
type Stats struct {
	GamesPlayed int           `json:"gamesPlayed"`
	WhiteWins   int           `json:"whiteWins"`
	BlackWins   int           `json:"blackWins"`
	TotalPlies  int           `json:"totalPlies"`
	TotalTime   time.Duration `json:"totalTime"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens the database in dir. An empty dir keeps everything in memory.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open results store: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func resultKey(id string) []byte {
	return []byte(resultPrefix + id)
}

// SaveResult stores a finished game, replacing any record with the same ID.
func (s *Storage) SaveResult(rec GameRecord) error {
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(resultKey(rec.ID), data)
	})
}

// LoadResult returns the record of game id, or ErrNotFound.
func (s *Storage) LoadResult(id string) (GameRecord, error) {
	var rec GameRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resultKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})

	return rec, err
}

// ListResults returns stored games, most recently finished first. A limit of
// zero or less returns all of them.
func (s *Storage) ListResults(limit int) ([]GameRecord, error) {
	records := []GameRecord{}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(resultPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec GameRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FinishedAt.After(records[j].FinishedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// LoadStats totals every stored result.
func (s *Storage) LoadStats() (Stats, error) {
	var stats Stats

	records, err := s.ListResults(0)
	if err != nil {
		return stats, err
	}
	for _, rec := range records {
		stats.GamesPlayed++
		stats.TotalPlies += rec.Plies
		stats.TotalTime += rec.Duration
		if rec.Winner == board.White {
			stats.WhiteWins++
		} else {
			stats.BlackWins++
		}
	}
	return stats, nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/models"
)

// MaxFileSize is the largest attachment accepted.
const MaxFileSize = 10 << 20

// chunkSize keeps every value under badger's 1 MiB in-memory value limit.
const chunkSize = 512 << 10

const gcInterval = 5 * time.Minute

// Store keeps poll attachments in badger. Metadata and content are written
// in one badger transaction.
type Store struct {
	db       *badger.DB
	logger   *slog.Logger
	dir      string
	now      func() time.Time
	gcTicker *time.Ticker
	gcStopCh chan struct{}
	gcWg     sync.WaitGroup
}

type Option func(*Store)

// WithDir persists files under dir. Without it files live in memory.
func WithDir(dir string) Option {
	return func(s *Store) { s.dir = dir }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func Open(opts ...Option) (*Store, error) {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	var badgerOpts badger.Options
	if s.dir == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create file store dir: %w", err)
		}
		badgerOpts = badger.DefaultOptions(s.dir)
	}
	badgerOpts = badgerOpts.
		WithLogger(badgerLogger{s.logger}).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open file store: %w", err)
	}
	s.db = db

	// Value log GC is not supported in memory
	if s.dir != "" {
		s.gcTicker = time.NewTicker(gcInterval)
		s.gcStopCh = make(chan struct{})
		s.gcWg.Add(1)
		go s.gc(s.gcTicker, s.gcStopCh)
	}
	return s, nil
}

func (s *Store) gc(t *time.Ticker, stop <-chan struct{}) {
	defer s.gcWg.Done()
	for {
		select {
		case <-t.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					// Run it again if it just ran successfully
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.Warn("file store GC failed", "error", err, "component", "filestore")
				}
				break
			}
		case <-stop:
			return
		}
	}
}

func (s *Store) Close() error {
	if s.gcTicker != nil {
		s.gcTicker.Stop()
		close(s.gcStopCh)
		s.gcWg.Wait()
		s.gcTicker = nil
	}
	return s.db.Close()
}

func metaKey(id string) []byte { return []byte("file/meta/" + id) }

func chunkKey(id string, n int) []byte { return fmt.Appendf(nil, "file/data/%s/%d", id, n) }

func chunkCount(size int) int { return (size + chunkSize - 1) / chunkSize }

// Put stores an attachment and returns its metadata with a new ID. Content
// is written in chunks before the metadata, so a file becomes visible only
// once all of it is stored.
func (s *Store) Put(ctx context.Context, upload models.FileUpload, uploadedBy string) (models.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return models.FileInfo{}, err
	}
	if len(upload.Content) > MaxFileSize {
		var v apperr.Validation
		v.Add("file", "file exceeds %d bytes", MaxFileSize)
		return models.FileInfo{}, v.Err()
	}

	info := models.FileInfo{
		ID:          uuid.NewString(),
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		Size:        len(upload.Content),
		UploadedBy:  uploadedBy,
		UploadedAt:  s.now().UTC(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("failed to encode file metadata: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for n := range chunkCount(info.Size) {
		chunk := upload.Content[n*chunkSize : min((n+1)*chunkSize, info.Size)]
		if err := wb.Set(chunkKey(info.ID, n), chunk); err != nil {
			return models.FileInfo{}, s.storeFailed(info, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return models.FileInfo{}, s.storeFailed(info, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(info.ID), meta)
	})
	if err != nil {
		return models.FileInfo{}, s.storeFailed(info, err)
	}

	s.logger.Debug("file stored", "file_id", info.ID, "size", info.Size)
	return info, nil
}

// storeFailed drops any chunks already written for info.
func (s *Store) storeFailed(info models.FileInfo, err error) error {
	cleanup := s.db.Update(func(txn *badger.Txn) error {
		for n := range chunkCount(info.Size) {
			if err := txn.Delete(chunkKey(info.ID, n)); err != nil {
				return err
			}
		}
		return nil
	})
	if cleanup != nil {
		s.logger.Warn("failed to remove partial file", "file_id", info.ID, "error", redact(cleanup))
	}
	return apperr.Wrap(apperr.KindDependency, "failed to store file", redact(err))
}

// Get returns the metadata and content of a file.
func (s *Store) Get(ctx context.Context, id string) (models.FileInfo, []byte, error) {
	if err := ctx.Err(); err != nil {
		return models.FileInfo{}, nil, err
	}

	var (
		info    models.FileInfo
		content []byte
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &info)
		}); err != nil {
			return err
		}

		content = make([]byte, 0, info.Size)
		for n := range chunkCount(info.Size) {
			item, err := txn.Get(chunkKey(id, n))
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				content = append(content, val...)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.FileInfo{}, nil, apperr.ErrFileNotFound
	}
	if err != nil {
		return models.FileInfo{}, nil, apperr.Wrap(apperr.KindDependency, "failed to read file", redact(err))
	}
	return info, content, nil
}

// Delete removes a file. Deleting a missing file is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var info models.FileInfo
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &info)
		}); err != nil {
			return err
		}

		if err := txn.Delete(metaKey(id)); err != nil {
			return err
		}
		for n := range chunkCount(info.Size) {
			if err := txn.Delete(chunkKey(id, n)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.KindDependency, "failed to delete file", redact(err))
	}

	s.logger.Debug("file deleted", "file_id", id)
	return nil
}

// redactedError hides the value dump badger appends to some errors.
type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }

func redact(err error) error {
	msg, _, found := strings.Cut(err.Error(), " Value:")
	if !found {
		return err
	}
	return redactedError{msg: msg, err: err}
}

// badgerLogger routes badger's printf-style logging through slog
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(msg string, args ...any) {
	l.logger.Error(fmt.Sprintf(msg, args...), "component", "filestore")
}

func (l badgerLogger) Warningf(msg string, args ...any) {
	l.logger.Warn(fmt.Sprintf(msg, args...), "component", "filestore")
}

func (l badgerLogger) Infof(msg string, args ...any) {
	l.logger.Info(fmt.Sprintf(msg, args...), "component", "filestore")
}

func (l badgerLogger) Debugf(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...), "component", "filestore")
}

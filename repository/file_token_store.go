// file: repository/file_token_store.go

package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go-access-gate/logger"
	"go-access-gate/model"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// FileTokenStore keeps the token table as a single JSON object in one file.
type FileTokenStore struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewFileTokenStore creates a store backed by path on fs.
func NewFileTokenStore(fs afero.Fs, path string) *FileTokenStore {
	return &FileTokenStore{fs: fs, path: path}
}

// Load reads the table. A missing or empty file is an empty table.
func (s *FileTokenStore) Load(ctx context.Context) (model.TokenTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save overwrites the whole file with table.
func (s *FileTokenStore) Save(ctx context.Context, table model.TokenTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(table)
}

// Update holds the store lock across load, fn and save.
func (s *FileTokenStore) Update(ctx context.Context, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(table)
	if err != nil || !changed {
		return err
	}
	return s.save(table)
}

func (s *FileTokenStore) load() (model.TokenTable, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.TokenTable{}, nil
		}
		logger.Log.WithError(err).WithField("path", s.path).Error("Failed to read token file")
		return nil, fmt.Errorf("read token file: %w", err)
	}
	return decodeTable(bytes.TrimSpace(data))
}

// save writes to a sibling temp file and renames it over the target.
func (s *FileTokenStore) save(table model.TokenTable) error {
	log := logger.Log.WithFields(logrus.Fields{
		"path":   s.path,
		"tokens": len(table),
	})

	data, err := encodeTable(table)
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		log.WithError(err).Error("Failed to create temp token file")
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		log.WithError(err).Error("Failed to write temp token file")
		return fmt.Errorf("write temp token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("sync temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("close temp token file: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		log.WithError(err).Error("Failed to replace token file")
		return fmt.Errorf("replace token file: %w", err)
	}

	log.Debug("Token file saved")
	return nil
}

package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const (
	fileFormat  = "finsim-session"
	fileVersion = 1
	fileExt     = ".fsim.zst"
)

type fileHeader struct {
	Format  string    `json:"format"`
	Version int       `json:"version"`
	ID      string    `json:"id"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore keeps one zstd-compressed file per session: a JSON header line
// followed by the JSON record.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return filepath.Join(s.dir, id+fileExt), nil
}

func (s *FileStore) Save(_ context.Context, rec Record) error {
	path, err := s.path(rec.ID)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := writeRecordFile(tmp, rec); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}

func writeRecordFile(path string, rec Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, err := json.Marshal(fileHeader{Format: fileFormat, Version: fileVersion, ID: rec.ID, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return f.Sync()
}

func (s *FileStore) Load(_ context.Context, id string) (Record, error) {
	path, err := s.path(id)
	if err != nil {
		return Record{}, err
	}
	return readRecordFile(path)
}

func readRecordFile(path string) (Record, error) {
	var rec Record
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return rec, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return rec, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return rec, fmt.Errorf("read header: %w", err)
	}
	var h fileHeader
	if err := json.Unmarshal(line, &h); err != nil {
		return rec, fmt.Errorf("decode header: %w", err)
	}
	if h.Format != fileFormat || h.Version != fileVersion {
		return rec, fmt.Errorf("unsupported session file %s v%d", h.Format, h.Version)
	}
	if err := json.NewDecoder(br).Decode(&rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := readRecordFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, rec.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

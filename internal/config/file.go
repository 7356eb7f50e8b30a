package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/logging"
	"github.com/sadopc/taskonaut/internal/store"
)

// File is config.json on disk plus its last good parsed snapshot. Readers get
// immutable snapshots; writers go through Update.
type File struct {
	path    string
	mu      sync.Mutex
	current atomic.Pointer[Document]
	log     *logrus.Entry
}

// Load reads path. A missing file yields the defaults; it is created on the
// first save.
func Load(path string) (*File, error) {
	f := &File{path: path, log: logging.NewLogger("config")}
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	f.current.Store(doc)
	return f, nil
}

func (f *File) Path() string { return f.path }

func (f *File) read() (*Document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.log.WithField("path", f.path).Debug("config not found, using defaults")
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, apperrors.ConfigInvalid(f.path, err)
	}
	return doc, nil
}

// Reload re-reads the file. On error the previous snapshot stays current.
func (f *File) Reload() error {
	doc, err := f.read()
	if err != nil {
		return err
	}
	f.current.Store(doc)
	return nil
}

// Document returns a copy of the current snapshot.
func (f *File) Document() *Document {
	return f.current.Load().Clone()
}

// Update applies fn to a copy of the document, validates and saves it.
func (f *File) Update(fn func(*Document)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.current.Load().Clone()
	fn(doc)
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if err := Validate(data); err != nil {
		return apperrors.ConfigInvalid(f.path, err)
	}
	if err := store.WriteFileAtomic(f.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	f.current.Store(doc)
	return nil
}

func (f *File) LoadProjectRegistry(ctx context.Context) (store.Registry, error) {
	return f.current.Load().ProjectsData.Clone(), nil
}

func (f *File) SaveProjectRegistry(ctx context.Context, r store.Registry) error {
	return f.Update(func(d *Document) { d.ProjectsData = r.Clone() })
}

func (f *File) AutoSplitThreshold() time.Duration {
	return f.current.Load().AutoSplitThreshold()
}

func (f *File) TargetSeconds(day time.Time) int64 {
	return f.current.Load().TargetSeconds(day)
}

func (f *File) AutoPauseAfter() time.Duration {
	return f.current.Load().AutoPauseAfter()
}

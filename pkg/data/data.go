// Package data provides accessors for the bundled and pre-generated
// example datasets of the toolkit: a WU-Minn HCP coronal slice, the Duval
// cat spinal cord 2D scan with co-registered histology, and two synthetic
// Camino Monte-Carlo datasets (parallel and dispersed fibers). Each
// accessor returns the dataset together with its acquisition scheme.
package data

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrNotDownloaded reports that a dataset which is not distributed with
// the module has not been fetched yet.
var ErrNotDownloaded = errors.New("example data not downloaded")

// envDataDir overrides the default data directory when set.
const envDataDir = "DMRIDATA_DIR"

// DefaultDir returns the directory the example data is looked up in:
// $DMRIDATA_DIR if set, otherwise ~/.dmridata.
func DefaultDir() string {
	if dir := os.Getenv(envDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dmridata"
	}
	return filepath.Join(home, ".dmridata")
}

// Loader resolves dataset files under a data directory and reports data
// attribution notices through its logger.
type Loader struct {
	dir string
	log zerolog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger routes the loader's attribution notices to l instead of the
// global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ld *Loader) {
		ld.log = l
	}
}

// NewLoader returns a Loader rooted at dir. An empty dir selects
// DefaultDir().
func NewLoader(dir string, opts ...Option) *Loader {
	if dir == "" {
		dir = DefaultDir()
	}
	ld := &Loader{dir: dir, log: log.Logger}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Dir returns the data directory the loader resolves files under.
func (l *Loader) Dir() string {
	return l.dir
}

func (l *Loader) path(elem ...string) string {
	return filepath.Join(append([]string{l.dir}, elem...)...)
}

func (l *Loader) notice(dataset, msg string) {
	l.log.Info().Str("dataset", dataset).Msg(msg)
}

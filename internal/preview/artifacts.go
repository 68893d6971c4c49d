package preview

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fixed artifact names. They are shared and overwritten in place; only
// video thumbnails get one file per source.
const (
	thumbnailName = "peek_thumbnail.png"
	fontName      = "peek_font.png"
	svgName       = "peek_svg.png"
	pdfPrefix     = "peek_pdf"
	officePdfName = "peek_office.pdf"
	officePrefix  = "peek_office"
)

// Artifacts manages the temporary files written by thumbnail strategies.
// Every shared build wipes the files of the previous one, so at most one
// source owns the shared set at a time.
type Artifacts struct {
	dir string
	// mu serializes writers of the shared fixed-name files.
	mu    sync.Mutex
	owner atomic.Pointer[string]
}

// NewArtifacts roots the artifacts in dir.
func NewArtifacts(dir string) *Artifacts {
	return &Artifacts{dir: dir}
}

// Dir returns the artifact directory.
func (a *Artifacts) Dir() string { return a.dir }

// Path returns the location of a fixed-name artifact.
func (a *Artifacts) Path(name string) string {
	return filepath.Join(a.dir, name)
}

// VideoPath returns the per-source thumbnail path, keyed by a hash of src.
func (a *Artifacts) VideoPath(src string) string {
	return filepath.Join(a.dir, fmt.Sprintf("peek_video_%016x.jpg", xxhash.Sum64String(src)))
}

// Holds reports whether the shared files were last rendered for source.
// It never waits on a running helper.
func (a *Artifacts) Holds(source string) bool {
	owner := a.owner.Load()
	return owner != nil && *owner == source
}

// Cleanup removes the shared artifacts left by the previous build. Missing
// files are fine; other errors are returned joined.
func (a *Artifacts) Cleanup() error {
	a.owner.Store(nil)
	var errs []error
	for _, name := range []string{thumbnailName, fontName, svgName, pdfPrefix + ".png", officePdfName, officePrefix + ".png"} {
		if err := os.Remove(a.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withShared runs fn while holding the shared-artifact lock, after clearing
// the previous artifacts. On success source becomes the owner.
func (a *Artifacts) withShared(source string, fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.Cleanup()
	if err := fn(); err != nil {
		return err
	}
	a.owner.Store(&source)
	return nil
}

// fresh reports whether path exists and was written within ttl of now.
func fresh(path string, ttl time.Duration, now time.Time) (exists, isFresh bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return true, now.Sub(info.ModTime()) < ttl
}

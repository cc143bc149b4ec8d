package downloader

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Role is the suffix that tells scratch artifacts of one download apart.
type Role string

const (
	RoleVideo     Role = "_vdo"
	RoleAudio     Role = "_ado"
	RoleCaption   Role = "_cap"
	RoleMerged    Role = "_merged"
	RoleThumbnail Role = "_thumbnail"
)

const tokenAttempts = 100

// Scratch is the per-download working area: a shared directory plus a token
// that prefixes every file this download creates there.
type Scratch struct {
	Dir   string
	Token string
}

// NewScratch creates dir if needed and picks a token no existing file uses.
func NewScratch(dir string) (*Scratch, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrapCategory(CategoryFilesystem, fmt.Errorf("create temp dir: %w", err))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, wrapCategory(CategoryFilesystem, fmt.Errorf("read temp dir: %w", err))
	}
	for range tokenAttempts {
		token := newToken()
		taken := false
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), token) {
				taken = true
				break
			}
		}
		if !taken {
			return &Scratch{Dir: dir, Token: token}, nil
		}
	}
	return nil, wrapCategory(CategoryFilesystem, fmt.Errorf("no free scratch token in %s", dir))
}

// newToken returns a random 10-digit decimal string.
func newToken() string {
	return strconv.FormatInt(1_000_000_000+rand.Int64N(9_000_000_000), 10)
}

// Path is the scratch file for role with extension ext.
func (s *Scratch) Path(role Role, ext string) string {
	return filepath.Join(s.Dir, s.Token+string(role)+"."+strings.TrimPrefix(ext, "."))
}

// Cleanup removes every file carrying this download's token. Failures are
// logged and otherwise ignored.
func (s *Scratch) Cleanup() {
	if s == nil {
		return
	}
	matches, err := filepath.Glob(filepath.Join(s.Dir, s.Token+"_*"))
	if err != nil {
		log.WithError(err).Warn("listing scratch files")
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.WithError(err).WithField("path", path).Warn("removing scratch file")
			continue
		}
		log.WithField("path", path).Debug("removed scratch file")
	}
}

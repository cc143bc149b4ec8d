package downloader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Output is the published file of one download.
type Output struct {
	Path    string
	Title   string
	Label   string
	Caption string
	Size    int64
}

// outputName builds "<title>_<label>[_<caption>].<ext>".
func outputName(title, label, caption, ext string) string {
	name := title + "_" + label
	if caption != "" {
		name += "_" + caption
	}
	return name + "." + ext
}

// uniquePath returns path when it is vacant, otherwise the first
// "name (n).ext" sibling that does not exist yet. The check is not a lock.
func uniquePath(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", wrapCategory(CategoryFilesystem, err)
	}
	return nextAvailablePath(path)
}

func nextAvailablePath(path string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	for i := 1; i < 10000; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, i, ext))
		if _, err := os.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return candidate, nil
			}
			return "", wrapCategory(CategoryFilesystem, err)
		}
	}
	return "", wrapCategory(CategoryFilesystem, fmt.Errorf("unable to find available filename for %s", path))
}

// publish moves src into dir under name, never replacing an existing file.
func publish(src, dir, name string) (string, int64, error) {
	if err := ensureDir(dir); err != nil {
		return "", 0, err
	}
	dest, err := uniquePath(filepath.Join(dir, name))
	if err != nil {
		return "", 0, err
	}
	if err := moveFile(src, dest); err != nil {
		return "", 0, wrapCategory(CategoryFilesystem, fmt.Errorf("publish %s: %w", dest, err))
	}
	var size int64
	if info, err := os.Stat(dest); err == nil {
		size = info.Size()
	}
	log.WithFields(log.Fields{"from": src, "to": dest}).Debug("published")
	return dest, size, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return wrapCategory(CategoryDestinationInvalid, fmt.Errorf("%s is not a directory", dir))
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return wrapCategory(CategoryDestinationInvalid, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrapCategory(CategoryDestinationInvalid, fmt.Errorf("create %s: %w", dir, err))
	}
	return nil
}

// moveFile renames src to dst, copying and deleting when the two live on
// different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}
	if cerr := copyFile(src, dst); cerr != nil {
		return fmt.Errorf("%w (copy fallback: %v)", err, cerr)
	}
	if rerr := os.Remove(src); rerr != nil {
		log.WithError(rerr).WithField("path", src).Warn("removing source after copy")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
)

var _ port.BlobStore = (*FSStore)(nil)

const tempPattern = ".tmp-*"

type Options struct {
	FileMode os.FileMode
	DirMode  os.FileMode
	NameFunc NameFunc
}

type OptionFunc func(*Options)

func WithFileMode(mode os.FileMode) OptionFunc {
	return func(o *Options) { o.FileMode = mode }
}

func WithDirMode(mode os.FileMode) OptionFunc {
	return func(o *Options) { o.DirMode = mode }
}

func WithNameFunc(fn NameFunc) OptionFunc {
	return func(o *Options) { o.NameFunc = fn }
}

// FSStore keeps blobs as flat files in a single directory. The directory is
// created on the first write.
type FSStore struct {
	root string
	opts Options
}

func NewFSStore(root string, opts ...OptionFunc) *FSStore {
	options := Options{
		FileMode: 0o644,
		DirMode:  0o755,
		NameFunc: NewName,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &FSStore{root: filepath.Clean(root), opts: options}
}

func (s *FSStore) Root() string { return s.root }

func (s *FSStore) Store(
	ctx context.Context, content io.Reader, extHint string,
) (string, error) {
	const op = "FSStore.Store"

	ext, err := ValidateExtension(extHint)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := os.MkdirAll(s.root, s.opts.DirMode); err != nil {
		return "", storageErr(op, err)
	}

	tmpPath, err := s.writeTemp(content)
	if err != nil {
		return "", storageErr(op, err)
	}
	defer func() { _ = os.Remove(tmpPath) }()

	name := s.opts.NameFunc(ext)
	dst := filepath.Join(s.root, name)

	// Link fails on an existing dst, unlike Rename.
	if err := os.Link(tmpPath, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", storageErr(op, fmt.Errorf("blob %s already exists", name))
		}
		return "", storageErr(op, err)
	}
	return name, nil
}

// writeTemp streams content into a temp file next to the final location so
// that a partial write is never visible under a blob name.
func (s *FSStore) writeTemp(content io.Reader) (path string, err error) {
	tmp, err := os.CreateTemp(s.root, tempPattern)
	if err != nil {
		return "", err
	}
	path = tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(path)
		}
	}()

	if _, err = io.Copy(tmp, content); err != nil {
		return "", err
	}
	if err = tmp.Sync(); err != nil {
		return "", err
	}
	if err = tmp.Chmod(s.opts.FileMode); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func (s *FSStore) Delete(ctx context.Context, name string) error {
	const op = "FSStore.Delete"

	if err := validateName(name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := os.Remove(filepath.Join(s.root, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageErr(op, err)
	}
	return nil
}

func (s *FSStore) Exists(ctx context.Context, name string) (bool, error) {
	const op = "FSStore.Exists"

	if err := validateName(name); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	_, err := os.Stat(filepath.Join(s.root, name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, storageErr(op, err)
	}
}

func (s *FSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	const op = "FSStore.Open"

	if err := validateName(name); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrBlobNotFound)
		}
		return nil, storageErr(op, err)
	}
	return f, nil
}

package patient

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// fileRepo keeps the document in a single file. Saves go to a temp file in
// the same directory that is renamed over the target.
type fileRepo struct {
	path  string
	codec Codec
}

func NewFileRepo(path string, codec Codec) Backend {
	return &fileRepo{path: path, codec: codec}
}

func (r *fileRepo) Name() string { return "file" }

// Load fails with ErrStorage when the file is missing.
func (r *fileRepo) Load(_ context.Context) (*Store, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorage, r.path, err)
	}
	return r.codec.Decode(data)
}

func (r *fileRepo) Save(_ context.Context, s *Store) error {
	data, err := r.codec.Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStorage, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrStorage, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrStorage, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStorage, tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrStorage, tmpName, err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", ErrStorage, r.path, err)
	}
	return nil
}

// Init writes an empty document unless the file already exists.
func (r *fileRepo) Init(ctx context.Context) error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %w", ErrStorage, r.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %w", ErrStorage, err)
	}
	return r.Save(ctx, NewStore())
}

package lock

import (
	"bytes"
	"errors"
	iofs "io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/twoliter/internal/adapters/fs"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/zerr"
)

// Encode serializes a lock as TOML with kits in their stable order.
func Encode(l *domain.Lock) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(l.Sorted()); err != nil {
		return nil, zerr.Wrap(err, domain.ErrLockWriteFailed.Error())
	}
	return buf.Bytes(), nil
}

// Decode parses a TOML lockfile.
func Decode(data []byte) (*domain.Lock, error) {
	var l domain.Lock
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&l); err != nil {
		return nil, zerr.Wrap(err, domain.ErrLockReadFailed.Error())
	}
	return &l, nil
}

// ReadFile loads the lock stored at path.
func ReadFile(path string) (*domain.Lock, error) {
	//nolint:gosec // Path is the project's lockfile
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, zerr.With(domain.ErrLockNotFound, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockReadFailed.Error()), "path", path)
	}

	l, err := Decode(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return l, nil
}

// WriteFile replaces the lock at path. The content is written to a temporary
// sibling and renamed so readers never observe a truncated lockfile.
func WriteFile(path string, l *domain.Lock) error {
	data, err := Encode(l)
	if err != nil {
		return err
	}
	if err := fs.WriteFileAtomic(path, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrLockWriteFailed.Error())
	}
	return nil
}

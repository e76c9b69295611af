package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const metaSuffix = ".meta.json"

// FSStore keeps objects as files below a root directory. Metadata is written next to
// each object in a "<key>.meta.json" sidecar.
type FSStore struct {
	fs afero.Fs
}

// NewFSStore stores objects below dir on the local filesystem.
func NewFSStore(dir string) *FSStore {
	return NewFSStoreOn(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// NewFSStoreOn stores objects at the root of fsys, e.g. afero.NewMemMapFs() in tests.
func NewFSStoreOn(fsys afero.Fs) *FSStore {
	return &FSStore{fs: fsys}
}

func (s *FSStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := objectPath(key)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}
	if err := afero.WriteFile(s.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	meta, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", key, err)
	}
	if err := afero.WriteFile(s.fs, name+metaSuffix, meta, 0o644); err != nil {
		return fmt.Errorf("write metadata for %s: %w", key, err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := objectPath(key)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Stat returns the options the object was written with.
func (s *FSStore) Stat(ctx context.Context, key string) (PutOptions, error) {
	var opts PutOptions
	name, err := objectPath(key)
	if err != nil {
		return opts, err
	}
	data, err := afero.ReadFile(s.fs, name+metaSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return opts, fmt.Errorf("%w: %s", ErrNotExist, key)
	}
	if err != nil {
		return opts, fmt.Errorf("read metadata for %s: %w", key, err)
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("decode metadata for %s: %w", key, err)
	}
	return opts, nil
}

func (s *FSStore) List(ctx context.Context, prefix string) ([]string, error) {
	root := "/"
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		root = "/" + prefix[:i]
	}

	var keys []string
	err := afero.Walk(s.fs, root, func(name string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() || strings.HasSuffix(name, metaSuffix) {
			return nil
		}
		key := strings.TrimPrefix(path.Clean("/"+name), "/")
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

func objectPath(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || strings.HasSuffix(key, "/") || clean != "/"+key {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return clean, nil
}

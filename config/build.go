package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/aferofs"
	"github.com/absfs/unifs/billyfs"
	"github.com/absfs/unifs/memfs"
	"github.com/absfs/unifs/mountfs"
	"github.com/absfs/unifs/osfs"
	"github.com/absfs/unifs/readonly"
	"github.com/absfs/unifs/stackfs"
	"github.com/absfs/unifs/subfs"
)

// BuildOption configures Build.
type BuildOption func(*builder)

// WithLogger sets the logger given to the stack and used to report the
// build. The default discards everything.
func WithLogger(log *slog.Logger) BuildOption {
	return func(b *builder) {
		b.log = log
	}
}

type builder struct {
	log    *slog.Logger
	closes []func() error
}

// Build composes the filesystem cfg describes. The returned close function
// releases host directory handles and must be called once the filesystem is
// no longer used. cfg is validated first.
func Build(cfg *Config, opts ...BuildOption) (unifs.FS, func() error, error) {
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	b := &builder{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}

	layers := make([]unifs.FS, 0, len(cfg.Layers))
	for i, lc := range cfg.Layers {
		l, err := b.layer(lc)
		if err != nil {
			b.close()
			return nil, nil, fmt.Errorf("failed to build layer %d (%s): %w", i, lc.Type, err)
		}
		b.log.Debug("built layer", "index", i, "type", lc.Type, "readonly", lc.ReadOnly)
		layers = append(layers, l)
	}

	fsys := layers[0]
	if len(layers) > 1 {
		stackOpts := []stackfs.Option{stackfs.WithLogger(b.log)}
		if c := cfg.Cache; c != nil {
			stackOpts = append(stackOpts, stackfs.WithCacheConfig(c.TTL, c.NegativeTTL, c.MaxEntries))
		}
		stack, err := stackfs.New(layers, stackOpts...)
		if err != nil {
			b.close()
			return nil, nil, fmt.Errorf("failed to stack layers: %w", err)
		}
		fsys = stack
	}
	for _, mc := range cfg.Mounts {
		l, err := b.layer(mc.Layer)
		if err == nil {
			fsys, err = mountfs.New(fsys, l, mc.Path)
		}
		if err != nil {
			b.close()
			return nil, nil, fmt.Errorf("failed to mount %s (%s): %w", mc.Path, mc.Layer.Type, err)
		}
		b.log.Debug("mounted layer", "path", mc.Path, "type", mc.Layer.Type)
	}
	if cfg.ReadOnly {
		fsys = readonly.New(fsys)
	}
	b.log.Info("built filesystem", "layers", len(layers), "mounts", len(cfg.Mounts), "readonly", cfg.ReadOnly)
	return fsys, b.close, nil
}

func (b *builder) layer(lc LayerConfig) (unifs.FS, error) {
	var (
		fsys unifs.FS
		err  error
	)
	switch lc.Type {
	case TypeMemory:
		fsys = memfs.New()
	case TypeAfero:
		fsys = aferofs.NewMemMap()
	case TypeBilly:
		fsys = billyfs.NewMemory()
	case TypeOS:
		var root *osfs.FS
		if lc.Create {
			root, err = osfs.NewOrCreate(lc.Root, 0o755)
		} else {
			root, err = osfs.New(lc.Root)
		}
		if err != nil {
			return nil, err
		}
		b.closes = append(b.closes, root.Close)
		fsys = root
	default:
		return nil, fmt.Errorf("unknown layer type %q", lc.Type)
	}

	if err := seed(fsys, lc.Files); err != nil {
		return nil, err
	}
	if lc.Sub != "" {
		if lc.Create {
			fsys, err = subfs.NewOrCreate(fsys, lc.Sub)
		} else {
			fsys, err = subfs.New(fsys, lc.Sub)
		}
		if err != nil {
			return nil, err
		}
	}
	if lc.ReadOnly {
		fsys = readonly.New(fsys)
	}
	return fsys, nil
}

// seed writes files into a fresh in-memory layer.
func seed(fsys unifs.FS, files map[string]string) error {
	if len(files) == 0 {
		return nil
	}
	data := make(map[string][]byte, len(files))
	for name, content := range files {
		data[name] = []byte(content)
	}
	src, err := memfs.FromMap(data)
	if err != nil {
		return err
	}
	return unifs.Walk(src, unifs.Root, func(name string, md unifs.Metadata, err error) error {
		switch {
		case err != nil:
			return err
		case unifs.IsRoot(name):
			return nil
		case md.IsDir():
			return fsys.Mkdir(name, unifs.MkdirOptions{Recursive: true, Perm: md.Perm})
		}
		_, err = unifs.Copy(src, name, fsys, name)
		return err
	})
}

func (b *builder) close() error {
	var errs []error
	for _, c := range b.closes {
		errs = append(errs, c())
	}
	b.closes = nil
	return errors.Join(errs...)
}

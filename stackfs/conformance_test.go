package stackfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/aferofs"
	"github.com/absfs/unifs/billyfs"
	"github.com/absfs/unifs/memfs"
	"github.com/absfs/unifs/osfs"
	"github.com/absfs/unifs/readonly"
	"github.com/absfs/unifs/unifstest"
)

func TestConformanceSingleLayer(t *testing.T) {
	unifstest.Run(t, func(t *testing.T) unifs.FS {
		return mustStack(t, []unifs.FS{memfs.New()})
	})
}

func TestConformanceTwoLayers(t *testing.T) {
	unifstest.Run(t, func(t *testing.T) unifs.FS {
		return mustStack(t, []unifs.FS{memfs.New(), readonly.New(memfs.New())})
	})
}

func TestConformanceMixedBackendsWithCache(t *testing.T) {
	unifstest.Run(t, func(t *testing.T) unifs.FS {
		return mustStack(t,
			[]unifs.FS{aferofs.NewMemMap(), billyfs.NewMemory()},
			WithCacheConfig(time.Minute, time.Minute, 100))
	})
}

func TestHostBaseLayer(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "etc"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "etc", "hosts"), []byte("127.0.0.1"), 0o644); err != nil {
		t.Fatal(err)
	}
	base, err := osfs.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer base.Close()

	top := aferofs.NewMemMap()
	s := mustStack(t, []unifs.FS{top, readonly.New(base)})

	if got := readString(t, s, "/etc/hosts"); got != "127.0.0.1" {
		t.Fatalf("got %q", got)
	}
	if err := s.WriteFile("/etc/hosts", []byte("\n::1"), unifs.WriteOptions{Mode: unifs.Append}); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("/etc/hosts", unifs.RemoveOptions{}); err != nil {
		t.Fatal(err)
	}
	if ok, err := unifs.Exists(s, "/etc/hosts"); err != nil || ok {
		t.Fatalf("removed file still visible: %v %v", ok, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "etc", "hosts"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "127.0.0.1" {
		t.Fatalf("host file changed: %q", data)
	}
	if names := listNames(t, s, "/etc"); len(names) != 0 {
		t.Fatalf("unexpected entries %v", names)
	}
}

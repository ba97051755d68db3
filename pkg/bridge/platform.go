package bridge

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// BinaryPath is the location of the bridge executable. It is resolved once
// at startup and never changes afterwards.
type BinaryPath string

func (p BinaryPath) String() string { return string(p) }

// executableBits is rwxr-xr-x.
const executableBits fs.FileMode = 0o755

// platformBinaries maps GOOS to the bundled bridge location relative to the
// bridge root directory.
var platformBinaries = map[string]string{
	"windows": filepath.Join("adbwindows", "adb.exe"),
	"linux":   filepath.Join("adblinux", "adb"),
	"darwin":  filepath.Join("adbmac", "adb"),
}

// Resolver finds the bridge binary for the host platform.
type Resolver struct {
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// GOOS defaults to runtime.GOOS.
	GOOS string
	// Root is the directory holding the per-platform folders. Defaults to ".".
	Root string
	// Override, when set, replaces the per-platform lookup. It is still
	// verified and made executable.
	Override string
	Logger   zerolog.Logger
}

// NewResolver returns a Resolver for the running host.
func NewResolver(root string, logger zerolog.Logger) *Resolver {
	return &Resolver{
		Fs:     afero.NewOsFs(),
		GOOS:   runtime.GOOS,
		Root:   root,
		Logger: logger,
	}
}

// BinaryFor returns the bundled binary location for goos under root.
func BinaryFor(goos, root string) (BinaryPath, error) {
	rel, ok := platformBinaries[goos]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
	if root == "" {
		root = "."
	}
	return BinaryPath(filepath.Join(root, rel)), nil
}

// Resolve maps the host OS to the bridge binary, checks that it is a
// regular file and, outside Windows, grants rwxr-xr-x if any of those bits
// are missing. It must run before any command is executed.
func (r *Resolver) Resolve() (BinaryPath, error) {
	fsys := r.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	goos := r.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	r.Logger.Info().Str("os", goos).Msg("Detected OS")

	var path BinaryPath
	if r.Override != "" {
		if _, ok := platformBinaries[goos]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
		}
		path = BinaryPath(r.Override)
	} else {
		var err error
		if path, err = BinaryFor(goos, r.Root); err != nil {
			return "", err
		}
	}

	info, err := fsys.Stat(path.String())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, path)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrBinaryNotFound, path)
	}

	if goos != "windows" {
		perm := info.Mode().Perm()
		if perm&executableBits != executableBits {
			if err := fsys.Chmod(path.String(), perm|executableBits); err != nil {
				return "", fmt.Errorf("make %s executable: %w", path, err)
			}
			r.Logger.Debug().Str("path", path.String()).Msg("Granted execute permission")
		}
	}

	r.Logger.Info().Str("path", path.String()).Msg("Using bridge binary")
	return path, nil
}

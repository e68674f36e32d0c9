package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"
)

var (
	// StoreSignature opens every SQLite database file
	StoreSignature = []byte("SQLite format 3\x00")
	// HostMagic is the leading chunk tag of the host container
	HostMagic = []byte("CSFCHUNK")
)

// LocateEmbeddedStore returns the offset of the first store signature in buf.
// The store is taken to run from there to the end of the buffer.
func LocateEmbeddedStore(buf []byte) (int, error) {
	offset := bytes.Index(buf, StoreSignature)
	if offset < 0 {
		return 0, fmt.Errorf("%w: scanned %d bytes", common.ErrSignatureNotFound, len(buf))
	}
	return offset, nil
}

// HasHostHeader reports whether buf starts with the host container magic.
func HasHostHeader(buf []byte) bool {
	return bytes.HasPrefix(buf, HostMagic)
}

// IsolateStore copies buf[offset:] into a new file named after id inside dir
// (os.TempDir when empty). The returned cleanup removes the copy and any
// journal files the store engine left beside it; it is safe to call more
// than once.
func IsolateStore(buf []byte, offset int, dir, id string) (string, func(), error) {
	if offset < 0 || offset >= len(buf) {
		return "", func() {}, fmt.Errorf("store offset %d outside buffer of %d bytes", offset, len(buf))
	}
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, fmt.Sprintf("clipwatch-%s.db", id))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create store copy: %w", err)
	}

	cleanup := func() {
		for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
			_ = os.Remove(p)
		}
	}

	_, werr := f.Write(buf[offset:])
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to write store copy: %w", err)
	}

	return path, cleanup, nil
}

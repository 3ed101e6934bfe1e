// Package archive provides path-traversal-safe tar.gz extraction, used
// by the node agent's binary upgrader to unpack a downloaded Nebula
// release archive.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxExtractedSize caps the total bytes written during extraction,
// guarding against a decompression bomb in a malicious or corrupted
// release archive.
const MaxExtractedSize = 256 * 1024 * 1024

// ExtractTarGz extracts the tar.gz stream r into destDir. Every archive
// member's resolved path is verified to remain under destDir before any
// data is written — the same check the server-side installer in the
// prior implementation applied, reimplemented as a Clean+prefix test
// since Go's os.Root containment API is not assumed available across
// target platforms.
func ExtractTarGz(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	destDir, err = filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	var written int64
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("mkdir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
			}
			mode := os.FileMode(header.Mode)
			if mode == 0 {
				mode = 0o644
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			n, err := io.Copy(out, io.LimitReader(tr, MaxExtractedSize-written+1))
			out.Close()
			if err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			written += n
			if written > MaxExtractedSize {
				return fmt.Errorf("archive exceeds maximum extracted size of %d bytes", MaxExtractedSize)
			}
		default:
			// symlinks, devices, etc. are not expected in a Nebula
			// release archive; skip silently rather than fail the whole
			// extraction on an unrelated entry.
			continue
		}
	}
}

// safeJoin resolves name under destDir and rejects any result that would
// escape destDir via ".." segments or an absolute path.
func safeJoin(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(destDir, name))
	if cleaned != destDir && !strings.HasPrefix(cleaned, destDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("unsafe path in archive: %q escapes extraction directory", name)
	}
	return cleaned, nil
}

// Package extract unpacks downloaded release archives. The archive format
// is selected by file extension: .tar.gz/.tgz, .tar.xz/.txz, .zip, and .exe
// payloads which are opaque single-file copies.
package extract

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/utils/file"
)

// Extract unpacks archive into dest, reporting per-entry progress. Entries
// that would escape dest are rejected.
func Extract(ctx context.Context, archive, dest string, sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}

	name := strings.ToLower(filepath.Base(archive))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return extractTar(ctx, archive, dest, gzipReader, sink)
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return extractTar(ctx, archive, dest, xzReader, sink)
	case strings.HasSuffix(name, ".zip"):
		return extractZip(ctx, archive, dest, sink)
	case strings.HasSuffix(name, ".exe"):
		return copyOpaque(archive, dest, sink)
	default:
		return &errdefs.ConfigError{Reason: fmt.Sprintf("unsupported archive format: %s", name)}
	}
}

type decompressor func(io.Reader) (io.Reader, error)

func gzipReader(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }
func xzReader(r io.Reader) (io.Reader, error)   { return xz.NewReader(r) }

// extractTar makes two passes over the archive: the first counts entries so
// extraction can report meaningful percentages, the second unpacks.
func extractTar(ctx context.Context, archive, dest string, wrap decompressor, sink progress.Sink) error {
	total, err := countTarEntries(archive, wrap)
	if err != nil {
		return err
	}
	if total == 0 {
		sink(progress.New(100).WithMessage("Archive empty"))
		return nil
	}

	f, err := os.Open(archive)
	if err != nil {
		return &errdefs.IoError{Path: archive, Err: err}
	}
	defer f.Close()

	decompressed, err := wrap(f)
	if err != nil {
		return &errdefs.IoError{Path: archive, Err: err}
	}

	sink(progress.New(0).WithMessage("Extracting files"))

	reader := tar.NewReader(decompressed)
	done := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &errdefs.IoError{Path: archive, Err: err}
		}

		target, err := securePath(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode).Perm()|0o700); err != nil {
				return &errdefs.IoError{Path: target, Err: err}
			}
		case tar.TypeReg:
			if err := writeEntry(target, reader, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			// filepath.Join would flatten an absolute link target into a
			// path under dest, so absolute linknames are rejected outright.
			if filepath.IsAbs(header.Linkname) {
				return &errdefs.IoError{
					Path: target,
					Err:  fmt.Errorf("symlink %s escapes destination", header.Linkname),
				}
			}
			linkTarget := filepath.Join(filepath.Dir(target), header.Linkname)
			if ok, _ := file.IsSubPath(dest, linkTarget); !ok {
				return &errdefs.IoError{
					Path: target,
					Err:  fmt.Errorf("symlink %s escapes destination", header.Linkname),
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return &errdefs.IoError{Path: target, Err: err}
			}
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return &errdefs.IoError{Path: target, Err: err}
			}
		default:
			// Hard links, devices and the like do not appear in release
			// archives; skip them instead of failing the install.
		}

		done++
		sink(progress.New(float64(done) / float64(total) * 100))
	}

	sink(progress.New(100).WithMessage("Files extracted"))
	return nil
}

func countTarEntries(archive string, wrap decompressor) (int, error) {
	f, err := os.Open(archive)
	if err != nil {
		return 0, &errdefs.IoError{Path: archive, Err: err}
	}
	defer f.Close()

	decompressed, err := wrap(f)
	if err != nil {
		return 0, &errdefs.IoError{Path: archive, Err: err}
	}

	reader := tar.NewReader(decompressed)
	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, &errdefs.IoError{Path: archive, Err: err}
		}
		count++
	}
}

func extractZip(ctx context.Context, archive, dest string, sink progress.Sink) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return &errdefs.IoError{Path: archive, Err: err}
	}
	defer zr.Close()

	total := len(zr.File)
	if total == 0 {
		sink(progress.New(100).WithMessage("Archive empty"))
		return nil
	}

	sink(progress.New(0).WithMessage("Extracting files"))

	for i, entry := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := securePath(dest, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, entry.Mode().Perm()|0o700); err != nil {
				return &errdefs.IoError{Path: target, Err: err}
			}
		} else {
			rc, err := entry.Open()
			if err != nil {
				return &errdefs.IoError{Path: archive, Err: err}
			}
			writeErr := writeEntry(target, rc, entry.Mode().Perm())
			_ = rc.Close()
			if writeErr != nil {
				return writeErr
			}
		}

		sink(progress.New(float64(i+1) / float64(total) * 100))
	}

	sink(progress.New(100).WithMessage("Files extracted"))
	return nil
}

// copyOpaque places a single-file payload (e.g. a Windows .exe) at dest
// unchanged.
func copyOpaque(src, dest string, sink progress.Sink) error {
	sink(progress.New(0).WithMessage("Copying installer payload"))
	target := dest
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		target = filepath.Join(dest, filepath.Base(src))
	}
	if err := file.CopyFile(src, target); err != nil {
		return &errdefs.IoError{Path: target, Err: err}
	}
	sink(progress.New(100).WithMessage("Payload copied"))
	return nil
}

// securePath joins name under dest and rejects entries escaping it.
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	ok, err := file.IsSubPath(dest, target)
	if err != nil {
		return "", &errdefs.IoError{Path: target, Err: err}
	}
	if !ok {
		return "", &errdefs.IoError{
			Path: target,
			Err:  fmt.Errorf("archive entry %q escapes destination", name),
		}
	}
	return target, nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &errdefs.IoError{Path: filepath.Dir(target), Err: err}
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return &errdefs.IoError{Path: target, Err: err}
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return &errdefs.IoError{Path: target, Err: err}
	}
	return out.Close()
}

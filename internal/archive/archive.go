// Package archive packs a run workspace into a tar.gz before the workspace
// is released, and unpacks such archives for re-parsing.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/talysviz/talysrun/internal/util/buffers"
)

// CreateTarGz writes every regular file under sourceDir into outputPath.
// Entries are stored as <rootName>/<relative path>. Files whose base name
// matches one of excludePatterns are skipped. A partial archive is removed
// on failure.
func CreateTarGz(sourceDir, outputPath, rootName string, excludePatterns []string) error {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("source directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path is not a directory: %s", sourceDir)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	gzWriter := gzip.NewWriter(outFile)
	tarWriter := tar.NewWriter(gzWriter)

	walkErr := filepath.Walk(sourceDir, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if filePath == sourceDir {
			return nil
		}

		relPath, err := filepath.Rel(sourceDir, filePath)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		if !fileInfo.IsDir() {
			if !fileInfo.Mode().IsRegular() || excluded(fileInfo.Name(), excludePatterns) {
				return nil
			}
		}

		header, err := tar.FileInfoHeader(fileInfo, "")
		if err != nil {
			return fmt.Errorf("failed to create tar header: %w", err)
		}
		header.Name = filepath.ToSlash(filepath.Join(rootName, relPath))
		if fileInfo.IsDir() {
			header.Name += "/"
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header: %w", err)
		}

		if fileInfo.Mode().IsRegular() {
			return copyFile(tarWriter, filePath)
		}
		return nil
	})

	// close in order: tar footer, gzip footer, file
	closeErr := errors.Join(tarWriter.Close(), gzWriter.Close(), outFile.Close())
	if err := errors.Join(walkErr, closeErr); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}

func copyFile(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := buffers.GetCopyBuffer()
	defer buffers.PutCopyBuffer(buf)

	if _, err := io.CopyBuffer(w, file, *buf); err != nil {
		return fmt.Errorf("failed to write file contents: %w", err)
	}
	return nil
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// ExtractTarGz unpacks archivePath into destDir and returns the directory
// holding the files: destDir itself, or its single top-level directory when
// the archive has one (as CreateTarGz produces). Entries that would escape
// destDir are rejected.
func ExtractTarGz(archivePath, destDir string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("not a gzip archive: %w", err)
	}
	defer gz.Close()

	roots := make(map[string]bool)
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read archive: %w", err)
		}

		target, err := PathInDirectory(header.Name, destDir)
		if err != nil {
			return "", err
		}
		roots[strings.SplitN(filepath.ToSlash(filepath.Clean(header.Name)), "/", 2)[0]] = true

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0700); err != nil {
				return "", fmt.Errorf("failed to create %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
				return "", fmt.Errorf("failed to create %s: %w", header.Name, err)
			}
			if err := writeEntry(target, tr); err != nil {
				return "", err
			}
		default:
			// links and devices are never produced by CreateTarGz
		}
	}

	if len(roots) == 1 {
		for root := range roots {
			dir := filepath.Join(destDir, root)
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				return dir, nil
			}
		}
	}
	return destDir, nil
}

func writeEntry(target string, r io.Reader) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", target, err)
	}
	return out.Close()
}

// PathInDirectory resolves path relative to baseDir and fails if the result
// escapes baseDir.
//
//	PathInDirectory("../../etc/passwd", "/tmp/x") // error
//	PathInDirectory("run/total.tot", "/tmp/x")    // "/tmp/x/run/total.tot"
func PathInDirectory(path, baseDir string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains null byte: %q", path)
	}

	base, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute path not allowed: %s", path)
	}
	resolved := filepath.Join(base, clean)

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s (base: %s)", path, baseDir)
	}
	return resolved, nil
}

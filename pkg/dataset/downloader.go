package dataset

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxSourceFileSize caps a single extracted CSV file.
const maxSourceFileSize = 2 << 30

// EnsureSource makes sure dir holds raw per-country CSV files. If none are
// present it downloads the gzipped tar archive at url and extracts every
// .csv member into dir. Existing data is never re-downloaded.
func EnsureSource(ctx context.Context, log *zap.Logger, dir, url string) error {
	if log == nil {
		log = zap.NewNop()
	}
	files, err := SourceFiles(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if len(files) > 0 {
		return nil
	}
	if url == "" {
		return fmt.Errorf("no source files in %s and no download url configured", dir)
	}

	log.Info("name dataset source not found, downloading", zap.String("dir", dir), zap.String("url", url))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	n, err := downloadAndExtract(ctx, url, dir)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	log.Info("name dataset source extracted", zap.Int("files", n))
	return nil
}

// SourceFiles lists the .csv files directly under dir, sorted by name.
func SourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func downloadAndExtract(ctx context.Context, url, dir string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "namelex-cli")

	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download failed: %s", resp.Status)
	}

	gzReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	found := 0
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return found, fmt.Errorf("error reading tar archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !strings.EqualFold(filepath.Ext(header.Name), ".csv") {
			continue
		}
		// Flatten member paths so archive entries cannot escape dir.
		dest := filepath.Join(dir, filepath.Base(header.Name))
		if err := writeMember(dest, tarReader); err != nil {
			return found, err
		}
		found++
	}

	if found == 0 {
		return 0, fmt.Errorf("no csv files found in downloaded archive")
	}
	return found, nil
}

func writeMember(dest string, r io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	n, err := io.Copy(out, io.LimitReader(r, maxSourceFileSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if n > maxSourceFileSize {
		return fmt.Errorf("%s exceeds %d bytes", dest, int64(maxSourceFileSize))
	}
	return nil
}

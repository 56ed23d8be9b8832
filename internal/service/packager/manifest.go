package packager

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/fsutil"
)

// buildManifest walks the staged package directory and records every regular
// file with its size, mode and checksum. Entries come out in lexical order,
// matching the deterministic archive layout.
func buildManifest(dir string) ([]release.ManifestEntry, error) {
	var entries []release.ManifestEntry

	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}

		checksum, sumErr := fsutil.FileChecksum(path)
		if sumErr != nil {
			return fmt.Errorf("checksum %s: %w", rel, sumErr)
		}

		entries = append(entries, release.ManifestEntry{
			Path:     filepath.ToSlash(rel),
			Size:     info.Size(),
			Mode:     uint32(info.Mode().Perm()),
			Checksum: base64.StdEncoding.EncodeToString(checksum),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

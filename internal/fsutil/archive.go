package fsutil

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TarGzDir archives dir as a gzip-compressed tarball at outputPath, with every
// entry placed under prefix. The output is deterministic: entries are walked
// in lexical order, timestamps are zeroed and ownership is normalized, so
// packaging the same tree twice produces byte-identical archives.
func TarGzDir(outputPath, dir, prefix string) error {
	out, err := os.Create(filepath.Clean(outputPath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	gzWriter := gzip.NewWriter(out)
	tarWriter := tar.NewWriter(gzWriter)

	err = filepath.WalkDir(dir, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}

		if rel == "." {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}

		name := prefix + "/" + filepath.ToSlash(rel)

		switch {
		case entry.IsDir():
			return tarWriter.WriteHeader(normalizedTarHeader(name+"/", info, tar.TypeDir, ""))
		case info.Mode()&os.ModeSymlink != 0:
			linkTarget, linkErr := os.Readlink(path)
			if linkErr != nil {
				return linkErr
			}

			return tarWriter.WriteHeader(normalizedTarHeader(name, info, tar.TypeSymlink, linkTarget))
		default:
			if writeErr := tarWriter.WriteHeader(normalizedTarHeader(name, info, tar.TypeReg, "")); writeErr != nil {
				return writeErr
			}

			return copyFileInto(tarWriter, path)
		}
	})
	if err != nil {
		_ = tarWriter.Close()
		_ = gzWriter.Close()
		_ = out.Close()

		return fmt.Errorf("archive %s: %w", dir, err)
	}

	if err = tarWriter.Close(); err != nil {
		return err
	}

	if err = gzWriter.Close(); err != nil {
		return err
	}

	return out.Close()
}

// normalizedTarHeader builds a tar header stripped of everything that varies
// between runs: modification times, ownership, user and group names.
func normalizedTarHeader(name string, info os.FileInfo, typeFlag byte, linkTarget string) *tar.Header {
	header := &tar.Header{
		Typeflag: typeFlag,
		Name:     name,
		Mode:     int64(info.Mode().Perm()),
		Linkname: linkTarget,
		Format:   tar.FormatPAX,
	}

	if typeFlag == tar.TypeReg {
		header.Size = info.Size()
	}

	return header
}

// ZipDir archives dir at outputPath with every entry placed under prefix.
// Deterministic for the same reasons as TarGzDir.
func ZipDir(outputPath, dir, prefix string) error {
	out, err := os.Create(filepath.Clean(outputPath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	zipWriter := zip.NewWriter(out)

	err = filepath.WalkDir(dir, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}

		header := &zip.FileHeader{
			Name:   prefix + "/" + filepath.ToSlash(rel),
			Method: zip.Deflate,
		}
		header.SetMode(info.Mode())

		writer, headerErr := zipWriter.CreateHeader(header)
		if headerErr != nil {
			return headerErr
		}

		if info.Mode()&os.ModeSymlink != 0 {
			linkTarget, linkErr := os.Readlink(path)
			if linkErr != nil {
				return linkErr
			}

			_, writeErr := writer.Write([]byte(linkTarget))

			return writeErr
		}

		return copyInto(writer, path)
	})
	if err != nil {
		_ = zipWriter.Close()
		_ = out.Close()

		return fmt.Errorf("archive %s: %w", dir, err)
	}

	if err = zipWriter.Close(); err != nil {
		return err
	}

	return out.Close()
}

// copyFileInto streams a file into a tar writer.
func copyFileInto(tarWriter *tar.Writer, path string) error {
	return copyInto(tarWriter, path)
}

// copyInto streams a file into any writer.
func copyInto(writer io.Writer, path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	_, err = io.Copy(writer, file)

	return err
}

// TarDirTo writes an uncompressed deterministic tar of dir to writer, with
// entries rooted at prefix. Used by the image builder, which needs the
// uncompressed stream to compute layer diff IDs.
func TarDirTo(writer io.Writer, dir, prefix string) error {
	tarWriter := tar.NewWriter(writer)

	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}

		if rel == "." {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}

		name := rel
		if prefix != "" {
			name = prefix + "/" + filepath.ToSlash(rel)
		}

		name = strings.TrimPrefix(filepath.ToSlash(name), "/")

		switch {
		case entry.IsDir():
			return tarWriter.WriteHeader(normalizedTarHeader(name+"/", info, tar.TypeDir, ""))
		case info.Mode()&os.ModeSymlink != 0:
			linkTarget, linkErr := os.Readlink(path)
			if linkErr != nil {
				return linkErr
			}

			return tarWriter.WriteHeader(normalizedTarHeader(name, info, tar.TypeSymlink, linkTarget))
		default:
			if writeErr := tarWriter.WriteHeader(normalizedTarHeader(name, info, tar.TypeReg, "")); writeErr != nil {
				return writeErr
			}

			return copyFileInto(tarWriter, path)
		}
	})
	if err != nil {
		_ = tarWriter.Close()
		return fmt.Errorf("archive %s: %w", dir, err)
	}

	return tarWriter.Close()
}

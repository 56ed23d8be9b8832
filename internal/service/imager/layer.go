package imager

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/okravets/shipkit/internal/fsutil"
)

// layer is one built image layer: the compressed blob plus the digests the
// manifest and config need.
type layer struct {
	// blob is the gzip-compressed layer tar.
	blob []byte
	// digest addresses the compressed blob.
	digest digest.Digest
	// diffID addresses the uncompressed tar, as recorded in the config rootfs.
	diffID digest.Digest
}

// descriptor returns the manifest descriptor for the layer.
func (l *layer) descriptor() ocispec.Descriptor {
	return ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageLayerGzip,
		Digest:    l.digest,
		Size:      int64(len(l.blob)),
	}
}

// layerFromDir tars dir with the fsutil writer, rooted at prefix, and wraps
// it as a compressed layer. The tar stream is deterministic, so the same
// directory contents always produce the same digests.
func layerFromDir(dir, prefix string) (*layer, error) {
	var tarBuffer bytes.Buffer

	if err := fsutil.TarDirTo(&tarBuffer, dir, prefix); err != nil {
		return nil, err
	}

	diffID := digest.Canonical.FromBytes(tarBuffer.Bytes())

	var blobBuffer bytes.Buffer

	gzWriter := gzip.NewWriter(&blobBuffer)
	if _, err := gzWriter.Write(tarBuffer.Bytes()); err != nil {
		return nil, fmt.Errorf("compress layer: %w", err)
	}

	if err := gzWriter.Close(); err != nil {
		return nil, fmt.Errorf("compress layer: %w", err)
	}

	return &layer{
		blob:   blobBuffer.Bytes(),
		digest: digest.Canonical.FromBytes(blobBuffer.Bytes()),
		diffID: diffID,
	}, nil
}

// baseLayer builds the skeleton layer: empty mount-point directories and
// nothing else.
func baseLayer() (*layer, error) {
	skeleton, err := os.MkdirTemp("", "shipkit-base-*")
	if err != nil {
		return nil, fmt.Errorf("create base skeleton: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(skeleton)
	}()

	for _, dir := range []string{"app", "tmp"} {
		if err = os.Mkdir(filepath.Join(skeleton, dir), fsutil.DefaultFileMode); err != nil {
			return nil, fmt.Errorf("create base skeleton: %w", err)
		}
	}

	return layerFromDir(skeleton, "")
}

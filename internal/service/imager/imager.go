package imager

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/opencontainers/go-digest"
	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/okravets/shipkit/internal/fsutil"
	"github.com/okravets/shipkit/internal/logger"
	"github.com/okravets/shipkit/internal/service/builder"
)

// blobFileMode is the permission for written layout blobs.
const blobFileMode = 0o644

// Image describes a written OCI image layout.
type Image struct {
	// LayoutDir is the root of the on-disk layout.
	LayoutDir string
	// ManifestDigest addresses the image manifest blob.
	ManifestDigest digest.Digest
	// Reference is the name annotation recorded in the layout index.
	Reference string
}

// BuildImage writes an OCI image layout for the environment package into
// layoutDir. The layout has exactly two layers: the base skeleton and the
// environment contents. The previous layout, if any, is replaced whole.
func BuildImage(ctx context.Context, pkg *builder.EnvironmentPackage, layoutDir string) (*Image, error) {
	if err := fsutil.ResetDir(layoutDir); err != nil {
		return nil, err
	}

	blobDir := filepath.Join(layoutDir, "blobs", digest.Canonical.String())
	if err := os.MkdirAll(blobDir, fsutil.DefaultFileMode); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}

	base, err := baseLayer()
	if err != nil {
		return nil, err
	}

	contents, err := layerFromDir(pkg.EnvDir, path.Join("app", pkg.Name))
	if err != nil {
		return nil, err
	}

	layers := []*layer{base, contents}
	for _, l := range layers {
		if err = writeBlob(blobDir, l.digest, l.blob); err != nil {
			return nil, err
		}
	}

	configDescriptor, err := writeConfig(blobDir, pkg, layers)
	if err != nil {
		return nil, err
	}

	manifestDescriptor, err := writeManifest(blobDir, configDescriptor, layers)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("%s:%s", pkg.Name, pkg.Version)
	if err = writeIndex(layoutDir, manifestDescriptor, reference); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Image layout written",
		"dir", layoutDir,
		"reference", reference,
		"manifest", manifestDescriptor.Digest.String(),
		"layers", len(layers))

	return &Image{
		LayoutDir:      layoutDir,
		ManifestDigest: manifestDescriptor.Digest,
		Reference:      reference,
	}, nil
}

// writeConfig writes the image config blob. The entrypoint is the packaged
// launcher and nothing else; there is no shell to fall back to.
func writeConfig(blobDir string, pkg *builder.EnvironmentPackage, layers []*layer) (ocispec.Descriptor, error) {
	diffIDs := make([]digest.Digest, 0, len(layers))
	for _, l := range layers {
		diffIDs = append(diffIDs, l.diffID)
	}

	imageConfig := ocispec.Image{
		Platform: ocispec.Platform{
			Architecture: runtime.GOARCH,
			OS:           "linux",
		},
		Config: ocispec.ImageConfig{
			Entrypoint: []string{path.Join("/app", pkg.Name, "bin", pkg.Name)},
			WorkingDir: path.Join("/app", pkg.Name),
		},
		RootFS: ocispec.RootFS{
			Type:    "layers",
			DiffIDs: diffIDs,
		},
	}

	return writeJSONBlob(blobDir, ocispec.MediaTypeImageConfig, imageConfig)
}

// writeManifest writes the image manifest blob referencing the config and
// layer blobs in order.
func writeManifest(blobDir string, configDescriptor ocispec.Descriptor, layers []*layer) (ocispec.Descriptor, error) {
	layerDescriptors := make([]ocispec.Descriptor, 0, len(layers))
	for _, l := range layers {
		layerDescriptors = append(layerDescriptors, l.descriptor())
	}

	manifest := ocispec.Manifest{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageManifest,
		Config:    configDescriptor,
		Layers:    layerDescriptors,
	}

	return writeJSONBlob(blobDir, ocispec.MediaTypeImageManifest, manifest)
}

// writeIndex writes the layout marker and the top-level index pointing at the
// manifest under the given reference name.
func writeIndex(layoutDir string, manifestDescriptor ocispec.Descriptor, reference string) error {
	layoutMarker, err := json.Marshal(ocispec.ImageLayout{Version: ocispec.ImageLayoutVersion})
	if err != nil {
		return fmt.Errorf("marshal layout marker: %w", err)
	}

	markerPath := filepath.Join(layoutDir, ocispec.ImageLayoutFile)
	if err = os.WriteFile(markerPath, layoutMarker, blobFileMode); err != nil {
		return fmt.Errorf("write layout marker: %w", err)
	}

	manifestDescriptor.Annotations = map[string]string{
		ocispec.AnnotationRefName: reference,
	}

	index := ocispec.Index{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageIndex,
		Manifests: []ocispec.Descriptor{manifestDescriptor},
	}

	contents, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	if err = os.WriteFile(filepath.Join(layoutDir, "index.json"), contents, blobFileMode); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	return nil
}

// writeJSONBlob marshals value, stores it content-addressed and returns its
// descriptor.
func writeJSONBlob(blobDir, mediaType string, value any) (ocispec.Descriptor, error) {
	contents, err := json.Marshal(value)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("marshal %s: %w", mediaType, err)
	}

	blobDigest := digest.Canonical.FromBytes(contents)
	if err = writeBlob(blobDir, blobDigest, contents); err != nil {
		return ocispec.Descriptor{}, err
	}

	return ocispec.Descriptor{
		MediaType: mediaType,
		Digest:    blobDigest,
		Size:      int64(len(contents)),
	}, nil
}

// writeBlob stores contents under its digest hex in the blob directory.
func writeBlob(blobDir string, blobDigest digest.Digest, contents []byte) error {
	target := filepath.Join(blobDir, blobDigest.Encoded())
	if err := os.WriteFile(target, contents, blobFileMode); err != nil {
		return fmt.Errorf("write blob %s: %w", blobDigest.String(), err)
	}

	return nil
}

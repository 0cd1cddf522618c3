package archive

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/meshcache/blobstore"
	"github.com/hupe1980/meshcache/codec"
	"github.com/hupe1980/meshcache/internal/hash"
)

const (
	// CurrentFileName holds the name of the committed manifest.
	CurrentFileName = "CURRENT"
	// ManifestPrefix prefixes every manifest blob.
	ManifestPrefix = "MANIFEST-"
	// DataPrefix prefixes every chunk data blob.
	DataPrefix = "data-"
	// DataSuffix is the extension of chunk data blobs.
	DataSuffix = ".mcd"

	// FormatVersion is the manifest format written by this package.
	FormatVersion = 1
)

var manifestMagic = [4]byte{'M', 'C', 'M', '1'}

// ManifestName returns the blob name of manifest n.
func ManifestName(n uint64) string { return fmt.Sprintf("%s%06d", ManifestPrefix, n) }

// DataName returns the blob name of chunk data file n.
func DataName(n uint64) string { return fmt.Sprintf("%s%06d%s", DataPrefix, n, DataSuffix) }

// parseManifestNumber extracts n from "MANIFEST-00000n".
func parseManifestNumber(name string) (uint64, bool) {
	if !strings.HasPrefix(name, ManifestPrefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(name, ManifestPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// manifest describes a committed archive.
type manifest struct {
	Version      int          `json:"version"`
	Number       uint64       `json:"number"`
	CreatedAt    time.Time    `json:"created_at"`
	Application  string       `json:"application,omitempty"`
	TimeSampling TimeSampling `json:"time_sampling"`
	DataFile     string       `json:"data_file"`
	DataSize     int64        `json:"data_size"`
	Objects      []objectMeta `json:"objects"`
}

type objectMeta struct {
	Path       string         `json:"path"`
	Kind       Kind           `json:"kind"`
	Properties []propertyMeta `json:"properties,omitempty"`
}

type propertyMeta struct {
	Name           string         `json:"name"`
	Group          string         `json:"group,omitempty"`
	DataType       DataType       `json:"data_type"`
	Interpretation Interpretation `json:"interpretation,omitempty"`
	Scope          Scope          `json:"scope"`
	NumSamples     int            `json:"num_samples"`
	// Present is the serialized roaring bitmap of sample indices with data.
	Present []byte      `json:"present"`
	Refs    []sampleRef `json:"refs"`
}

// sampleRef locates one present sample. Index chunks are optional.
type sampleRef struct {
	Offset    int64 `json:"off"`
	Size      int64 `json:"size"`
	IdxOffset int64 `json:"idx_off,omitempty"`
	IdxSize   int64 `json:"idx_size,omitempty"`
	// Scope overrides the property scope for this sample.
	Scope *Scope `json:"scope,omitempty"`
}

func (r sampleRef) indexed() bool { return r.IdxSize > 0 }

// Manifest envelope (little-endian):
//
//	[0:4)  magic "MCM1"
//	[4:8)  CRC32 of the payload
//	[8]    codec name length
//	[9:9+n) codec name
//	payload
func encodeManifest(m *manifest, c codec.Codec) ([]byte, error) {
	payload, err := c.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("archive: encode manifest: %w", err)
	}
	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("archive: codec name too long: %q", name)
	}

	var buf bytes.Buffer
	buf.Grow(9 + len(name) + len(payload))
	buf.Write(manifestMagic[:])
	var crc [4]byte
	binary.LittleEndian.PutUint32(crc[:], hash.CRC32C(payload))
	buf.Write(crc[:])
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	buf.Write(payload)
	return buf.Bytes(), nil
}

func decodeManifest(b []byte) (*manifest, string, error) {
	if len(b) < 9 || [4]byte(b[0:4]) != manifestMagic {
		return nil, "", corruptf("bad manifest header")
	}
	want := binary.LittleEndian.Uint32(b[4:8])
	n := int(b[8])
	if len(b) < 9+n {
		return nil, "", corruptf("manifest truncated")
	}
	name := string(b[9 : 9+n])
	payload := b[9+n:]

	if got, ok := hash.Verify(payload, want); !ok {
		return nil, name, &ChecksumMismatchError{Offset: 0, Expected: want, Actual: got}
	}

	c, ok := codec.ByName(name)
	if !ok {
		return nil, name, fmt.Errorf("archive: manifest written with unknown codec %q", name)
	}

	var m manifest
	if err := c.Unmarshal(payload, &m); err != nil {
		return nil, name, corruptf("decode manifest: %v", err)
	}
	if m.Version != FormatVersion {
		return nil, name, fmt.Errorf("archive: unsupported manifest version %d (expected %d)", m.Version, FormatVersion)
	}
	return &m, name, nil
}

// readCurrent returns the committed manifest name, or ErrNotFound.
func readCurrent(ctx context.Context, store blobstore.BlobStore) (string, error) {
	b, err := blobstore.ReadAll(ctx, store, CurrentFileName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	name := strings.TrimSpace(string(b))
	if name == "" {
		return "", corruptf("empty CURRENT")
	}
	return name, nil
}

// loadManifest reads CURRENT and the manifest it names.
func loadManifest(ctx context.Context, store blobstore.BlobStore) (*manifest, string, error) {
	name, err := readCurrent(ctx, store)
	if err != nil {
		return nil, "", err
	}
	b, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, "", corruptf("CURRENT names missing manifest %s", name)
		}
		return nil, "", err
	}
	m, codecName, err := decodeManifest(b)
	if err != nil {
		return nil, "", err
	}
	return m, codecName, nil
}

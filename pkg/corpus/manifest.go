package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/engineer42AI/regtrace/internal/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ManifestName is the fixed entry file of every bundle.
const ManifestName = "manifest.json"

// Integrity statuses reported by Verify.
const (
	StatusValid       = "valid"
	StatusInvalid     = "invalid"
	StatusMissing     = "missing"
	StatusUnsupported = "unsupported"
)

// Meta describes a bundle.
type Meta struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Scope     string `json:"scope,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

// FileEntry is one data file of a bundle: a JSONL collection of either
// node or edge records.
type FileEntry struct {
	Name       string `json:"name"`
	Collection string `json:"collection"`
	Kind       string `json:"kind"`
}

// Integrity carries the bundle checksum, "sha256:<hex>" over the sorted
// data files.
type Integrity struct {
	Checksum string `json:"checksum"`
}

// Manifest is the entry document of a corpus bundle.
type Manifest struct {
	Meta       Meta        `json:"meta"`
	Files      []FileEntry `json:"files"`
	Integrity  Integrity   `json:"integrity"`
	ContentRev string      `json:"content_rev,omitempty"`
}

// Source abstracts where bundle files live.
type Source interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
}

// DirSource reads bundle files from a local directory.
type DirSource struct {
	Dir string
}

func (d DirSource) ReadFile(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.Dir, name))
}

// S3Source reads bundle files below a key prefix in the bundle bucket.
type S3Source struct {
	Client *s3.Client
	Prefix string
}

func (s S3Source) ReadFile(ctx context.Context, name string) ([]byte, error) {
	return storage.GetObject(ctx, s.Client, path.Join(s.Prefix, name))
}

// LoadManifest reads and decodes the bundle manifest.
func LoadManifest(ctx context.Context, src Source) (*Manifest, error) {
	raw, err := src.ReadFile(ctx, ManifestName)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// Checksum computes the bundle checksum: sha256 over the contents of
// the named files in sorted name order, formatted "sha256:<hex>".
func Checksum(ctx context.Context, src Source, names []string) (string, error) {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	h := sha256.New()
	for _, name := range sorted {
		raw, err := src.ReadFile(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", name, err)
		}
		h.Write(raw)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// Verify checks the manifest checksum against the bundle files and
// reports one of the integrity statuses. Only sha256 checksums are
// supported; anything else is unsupported, not an error.
func (m *Manifest) Verify(ctx context.Context, src Source) (string, error) {
	declared := strings.TrimSpace(m.Integrity.Checksum)
	if declared == "" {
		return StatusMissing, nil
	}
	if !strings.HasPrefix(declared, "sha256:") || declared == "sha256:" {
		return StatusUnsupported, nil
	}

	names := make([]string, len(m.Files))
	for i, f := range m.Files {
		names[i] = f.Name
	}

	actual, err := Checksum(ctx, src, names)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StatusMissing, nil
		}
		return "", err
	}
	if actual == declared {
		return StatusValid, nil
	}
	return StatusInvalid, nil
}

// Package snapshot copies whole volume images to and from an object store.
// Each snapshot is an image object plus a YAML manifest recording the
// volume geometry and a BLAKE2b digest of the image.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v2"

	"github.com/weberc2/fatsim/pkg/blockstore"
	"github.com/weberc2/fatsim/pkg/objectstore"
	. "github.com/weberc2/fatsim/pkg/types"
)

const (
	ErrDigestMismatch ConstError = "snapshot digest mismatch"
	ErrSizeMismatch   ConstError = "snapshot size does not match volume"

	manifestObject = "manifest.yaml"
	imageObject    = "image"
)

type Manifest struct {
	ID        string    `yaml:"id"`
	Volume    string    `yaml:"volume"`
	Blocks    Block     `yaml:"blocks"`
	BlockSize Byte      `yaml:"blockSize"`
	Digest    string    `yaml:"digest"`
	CreatedAt time.Time `yaml:"createdAt"`
}

// Store pushes and pulls snapshots under `Prefix`. `IDFunc` and `TimeFunc`
// default to random UUIDs and the wall clock.
type Store struct {
	ObjectStore objectstore.ObjectStore
	Prefix      string
	IDFunc      func() string
	TimeFunc    func() time.Time
}

func (s *Store) volumePrefix(volume string) string {
	return path.Join(s.Prefix, slug.Make(volume)) + "/"
}

func (s *Store) key(volume, id, object string) string {
	return path.Join(s.Prefix, slug.Make(volume), id, object)
}

func (s *Store) newID() string {
	if s.IDFunc != nil {
		return s.IDFunc()
	}
	return uuid.NewString()
}

func (s *Store) now() time.Time {
	if s.TimeFunc != nil {
		return s.TimeFunc()
	}
	return time.Now().UTC()
}

// Push uploads every block of `src` as a new snapshot of `volume`.
func (s *Store) Push(
	volume string,
	src blockstore.BlockStore,
) (*Manifest, error) {
	var image bytes.Buffer
	image.Grow(int(blockstore.Offset(src.Size())))
	digest, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("pushing snapshot: creating digest: %w", err)
	}

	w := io.MultiWriter(&image, digest)
	buf := make([]byte, BlockSize)
	for b := Block(0); b < src.Size(); b++ {
		if err := src.ReadBlock(b, buf); err != nil {
			return nil, fmt.Errorf("pushing snapshot: %w", err)
		}
		if _, err := w.Write(buf); err != nil {
			return nil, fmt.Errorf("pushing snapshot: buffering image: %w", err)
		}
	}

	manifest := Manifest{
		ID:        s.newID(),
		Volume:    volume,
		Blocks:    src.Size(),
		BlockSize: BlockSize,
		Digest:    hex.EncodeToString(digest.Sum(nil)),
		CreatedAt: s.now(),
	}

	if err := s.ObjectStore.PutObject(
		s.key(volume, manifest.ID, imageObject),
		bytes.NewReader(image.Bytes()),
	); err != nil {
		return nil, fmt.Errorf("pushing snapshot `%s`: %w", manifest.ID, err)
	}

	// the manifest goes last so a listed snapshot always has its image
	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := s.ObjectStore.PutObject(
		s.key(volume, manifest.ID, manifestObject),
		bytes.NewReader(data),
	); err != nil {
		return nil, fmt.Errorf("pushing snapshot `%s`: %w", manifest.ID, err)
	}

	log.WithFields(log.Fields{
		"volume":   volume,
		"snapshot": manifest.ID,
		"blocks":   manifest.Blocks,
	}).Info("pushed snapshot")
	return &manifest, nil
}

// Manifest fetches the manifest of snapshot `id` of `volume`.
func (s *Store) Manifest(volume, id string) (*Manifest, error) {
	body, err := s.ObjectStore.GetObject(s.key(volume, id, manifestObject))
	if err != nil {
		return nil, fmt.Errorf("fetching manifest `%s`: %w", id, err)
	}
	defer body.Close()

	var manifest Manifest
	if err := yaml.NewDecoder(body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest `%s`: %w", id, err)
	}
	return &manifest, nil
}

// Pull overwrites `dst` with snapshot `id` of `volume`. The destination
// must have the snapshot's block count, and the image must match the
// manifest's digest before any block is written.
func (s *Store) Pull(
	volume string,
	id string,
	dst blockstore.BlockStore,
) (*Manifest, error) {
	manifest, err := s.Manifest(volume, id)
	if err != nil {
		return nil, fmt.Errorf("pulling snapshot: %w", err)
	}
	if manifest.Blocks != dst.Size() || manifest.BlockSize != BlockSize {
		return nil, fmt.Errorf(
			"pulling snapshot `%s`: snapshot has `%d` blocks of `%d` bytes; "+
				"volume has `%d` blocks of `%d` bytes: %w",
			id,
			manifest.Blocks,
			manifest.BlockSize,
			dst.Size(),
			BlockSize,
			ErrSizeMismatch,
		)
	}

	body, err := s.ObjectStore.GetObject(s.key(volume, id, imageObject))
	if err != nil {
		return nil, fmt.Errorf("pulling snapshot `%s`: %w", id, err)
	}
	defer body.Close()

	image, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("pulling snapshot `%s`: reading image: %w", id, err)
	}
	if int64(len(image)) != blockstore.Offset(manifest.Blocks) {
		return nil, fmt.Errorf(
			"pulling snapshot `%s`: image has `%d` bytes: %w",
			id,
			len(image),
			ErrSizeMismatch,
		)
	}
	sum := blake2b.Sum256(image)
	if found := hex.EncodeToString(sum[:]); found != manifest.Digest {
		return nil, fmt.Errorf(
			"pulling snapshot `%s`: wanted digest `%s`; found `%s`: %w",
			id,
			manifest.Digest,
			found,
			ErrDigestMismatch,
		)
	}

	for b := Block(0); b < manifest.Blocks; b++ {
		start := blockstore.Offset(b)
		if err := dst.WriteBlock(b, image[start:start+int64(BlockSize)]); err != nil {
			return nil, fmt.Errorf("pulling snapshot `%s`: %w", id, err)
		}
	}

	log.WithFields(log.Fields{
		"volume":   volume,
		"snapshot": id,
		"blocks":   manifest.Blocks,
	}).Info("pulled snapshot")
	return manifest, nil
}

// List returns the snapshots of `volume`, oldest first.
func (s *Store) List(volume string) ([]*Manifest, error) {
	keys, err := s.ObjectStore.ListObjects(s.volumePrefix(volume))
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var manifests []*Manifest
	for _, key := range keys {
		if path.Base(key) != manifestObject {
			continue
		}
		id := path.Base(path.Dir(key))
		manifest, err := s.Manifest(volume, id)
		if err != nil {
			return nil, fmt.Errorf("listing snapshots: %w", err)
		}
		manifests = append(manifests, manifest)
	}

	sort.Slice(manifests, func(i, j int) bool {
		if manifests[i].CreatedAt.Equal(manifests[j].CreatedAt) {
			return manifests[i].ID < manifests[j].ID
		}
		return manifests[i].CreatedAt.Before(manifests[j].CreatedAt)
	})
	return manifests, nil
}

// Package snapshotfile persists the sample set as a zstd-compressed file: one
// JSON header line followed by a gob-encoded body.
package snapshotfile

import (
	"bufio"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/jengzang/landsat-go/internal/datastore"
)

const formatVersion = 1

type Header struct {
	Version int       `json:"version"`
	Samples int       `json:"samples"`
	Bodies  []string  `json:"bodies"`
	SavedAt time.Time `json:"saved_at"`
}

type SnapshotV1 struct {
	Header   Header
	Readings []datastore.Reading
}

// Persister stores snapshots at a fixed path. It implements datastore.Persister.
type Persister struct {
	path string
}

func New(path string) *Persister {
	return &Persister{path: path}
}

// Load returns the readings of the snapshot file, or none if it does not exist yet
func (p *Persister) Load(ctx context.Context) ([]datastore.Reading, error) {
	snap, err := ReadSnapshot(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap.Readings, nil
}

// Save writes snapshot to a temporary file and renames it over the previous one
func (p *Persister) Save(ctx context.Context, snapshot *datastore.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := SnapshotV1{
		Header: Header{
			Version: formatVersion,
			Samples: snapshot.CountAll(),
			Bodies:  snapshot.BodiesKnown(),
			SavedAt: time.Now().UTC(),
		},
		Readings: snapshot.Readings(),
	}
	tmp := p.path + ".tmp"
	if err := WriteSnapshot(tmp, snap); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p.path)
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	hb, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(hb, &h); err != nil {
		return snap, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != formatVersion {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

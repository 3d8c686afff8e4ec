package l3value

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

// Snapshot is the serialisable form of a ValueMap.
type Snapshot struct {
	Height     int
	Width      int
	Params     FusionParams
	Value      []float64 // row-major
	Confidence []float64 // row-major
}

// Snapshot copies the map state under the read lock.
func (vm *ValueMap) Snapshot() Snapshot {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return Snapshot{
		Height:     vm.height,
		Width:      vm.width,
		Params:     vm.params,
		Value:      rawCopy(vm.value),
		Confidence: rawCopy(vm.conf),
	}
}

func rawCopy(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

// Encode compresses the snapshot using gob encoding and zstd compression.
func (s Snapshot) Encode() ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode value snapshot: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw.Bytes(), nil), nil
}

// DecodeSnapshot decompresses and decodes a blob produced by Encode.
func DecodeSnapshot(blob []byte) (Snapshot, error) {
	var s Snapshot
	if len(blob) == 0 {
		return s, fmt.Errorf("empty value snapshot blob")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return s, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return s, fmt.Errorf("failed to decompress value snapshot: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&s); err != nil {
		return s, fmt.Errorf("failed to decode value snapshot: %w", err)
	}
	return s, nil
}

// Restore builds a new ValueMap from a snapshot. Stored entries are
// clamped into [0,1] on the way in.
func Restore(s Snapshot) (*ValueMap, error) {
	n := s.Height * s.Width
	if len(s.Value) != n || len(s.Confidence) != n {
		opsf("value snapshot %dx%d has %d values and %d confidences, refusing restore",
			s.Height, s.Width, len(s.Value), len(s.Confidence))
		return nil, fmt.Errorf("%w: snapshot %dx%d holds %d values, %d confidences",
			ErrShape, s.Height, s.Width, len(s.Value), len(s.Confidence))
	}
	vm, err := NewValueMap(s.Height, s.Width, s.Params)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		v, _ := clampUnit(s.Value[i])
		c, _ := clampUnit(s.Confidence[i])
		vm.value.Set(i/s.Width, i%s.Width, v)
		vm.conf.Set(i/s.Width, i%s.Width, min(c, s.Params.ConfidenceCap))
	}
	return vm, nil
}

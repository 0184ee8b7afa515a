package vector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Save persists the index and registry to path. Directory is created if
// needed. Format (little endian): dimension (4), n (4), then per entry:
// id (8), urlLen (4), url bytes, textLen (4), text bytes, vector (dimension*4).
// An unset index saves dimension 0, count 0.
func (e *Engine) Save(path string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	dims := uint32(0)
	if e.index != nil {
		dims = uint32(e.index.Dimensions())
	}
	if err := binary.Write(w, binary.LittleEndian, dims); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(e.texts))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i := range e.texts {
		if err := binary.Write(w, binary.LittleEndian, e.ids[i]); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if err := writeString(w, e.urls[i]); err != nil {
			return fmt.Errorf("write url: %w", err)
		}
		if err := writeString(w, e.texts[i]); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
		if _, err := w.Write(float32SliceToBytes(e.index.At(i))); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return w.Flush()
}

// Load reads the index and registry from path, replacing the in-memory
// contents. A missing file is not an error and leaves the engine unchanged.
// Dimensions must match the embedder's.
func (e *Engine) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var dims, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	if n == 0 {
		return nil
	}
	if int(dims) != e.embedder.Dimensions() {
		return fmt.Errorf("dimension mismatch: file has %d, embedder expects %d", dims, e.embedder.Dimensions())
	}

	index, err := NewFlatIndex(int(dims))
	if err != nil {
		return err
	}
	texts := make([]string, 0, n)
	ids := make([]int64, 0, n)
	urls := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	buf := make([]byte, dims*4)
	for i := uint32(0); i < n; i++ {
		var id int64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		url, err := readString(r)
		if err != nil {
			return fmt.Errorf("read url: %w", err)
		}
		text, err := readString(r)
		if err != nil {
			return fmt.Errorf("read text: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		if err := index.Add([][]float32{bytesToFloat32Slice(buf)}); err != nil {
			return err
		}
		texts = append(texts, text)
		ids = append(ids, id)
		urls = append(urls, url)
		seen[text] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = index
	e.texts = texts
	e.ids = ids
	e.urls = urls
	e.seen = seen
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

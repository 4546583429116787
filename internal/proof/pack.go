package proof

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"sort"
	"time"

	"github.com/klauspost/compress/flate"

	"dnsc/internal/encoding"
)

// packEpoch is the fixed, wall-clock-free sentinel every Proof Pack entry
// is stamped with, per spec.md §4.I and §9 ("wall-clock in signatures is
// strictly forbidden").
var packEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

func init() {
	// Pin the DEFLATE implementation so pack bytes never drift with the
	// stdlib's flate version.
	zip.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
}

// PackInput is everything BuildPack needs to assemble a Proof Pack ZIP.
// PDF is optional; its absence never changes the hash of any other entry.
type PackInput struct {
	Proof ProofDocument
	Latex string
	PDF   []byte
}

type packEntry struct {
	path string
	data []byte
	dir  bool
}

// manifestEntry is one file's record in manifest.json.
type manifestEntry struct {
	Path   string
	SHA256 string
	Bytes  int
}

// BuildPack assembles a deterministic Proof Pack ZIP from input. Same input
// produces byte-identical output on every call (spec.md §8, property 5).
func BuildPack(input PackInput) ([]byte, error) {
	proofBytes, err := encoding.Encode(input.Proof.ToCanonicalValue())
	if err != nil {
		return nil, err
	}

	entries := []packEntry{
		{path: "assets/", dir: true},
		{path: "proof_pack/", dir: true},
		{path: "proof_pack/proof.json", data: proofBytes},
		{path: "proof_pack/proof.tex", data: []byte(normalizeLF(input.Latex))},
	}

	fileEntries := manifestEntries(entries)
	manifestBytes, err := encodeManifest(fileEntries)
	if err != nil {
		return nil, err
	}
	signatureBytes, err := encodeSignature(fileEntries)
	if err != nil {
		return nil, err
	}

	if input.PDF != nil {
		entries = append(entries, packEntry{path: "proof_pack/proof.pdf", data: input.PDF})
	}
	entries = append(entries,
		packEntry{path: "proof_pack/manifest.json", data: manifestBytes},
		packEntry{path: "proof_pack/signature.json", data: signatureBytes},
	)
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	return writeZip(entries)
}

func manifestEntries(entries []packEntry) []manifestEntry {
	out := make([]manifestEntry, 0, len(entries))
	for _, e := range entries {
		if e.dir {
			continue
		}
		out = append(out, manifestEntry{
			Path:   e.path,
			SHA256: encoding.HashBytes(e.data),
			Bytes:  len(e.data),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func encodeManifest(entries []manifestEntry) ([]byte, error) {
	files := make([]encoding.Value, 0, len(entries))
	for _, m := range entries {
		files = append(files, encoding.Map(map[string]encoding.Value{
			"path":   encoding.String(m.Path),
			"sha256": encoding.String(m.SHA256),
			"bytes":  encoding.Int(int64(m.Bytes)),
		}))
	}
	return encoding.Encode(encoding.Map(map[string]encoding.Value{"files": encoding.Seq(files...)}))
}

// encodeSignature hashes the concatenation of sorted per-file hashes,
// giving a single pack fingerprint independent of manifest formatting.
func encodeSignature(entries []manifestEntry) ([]byte, error) {
	hashes := make([]string, 0, len(entries))
	for _, m := range entries {
		hashes = append(hashes, m.SHA256)
	}
	sort.Strings(hashes)
	concatenated := make([]byte, 0, len(hashes)*64)
	for _, hh := range hashes {
		concatenated = append(concatenated, hh...)
	}
	fingerprint := encoding.HashBytes(concatenated)
	return encoding.Encode(encoding.Map(map[string]encoding.Value{"pack_fingerprint": encoding.String(fingerprint)}))
}

func writeZip(entries []packEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{
			Name:     e.path,
			Modified: packEpoch,
		}
		if e.dir {
			hdr.SetMode(0o755 | os.ModeDir)
		} else {
			hdr.Method = zip.Deflate
			hdr.SetMode(0o644)
		}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, err
		}
		if !e.dir {
			if _, err := fw.Write(e.data); err != nil {
				return nil, err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func normalizeLF(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

package proof

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"sort"
)

// coreTimestampPattern matches the created/modified dcterms values and the
// revision counter inside a DOCX's docProps/core.xml, the three fields
// spec.md §4.I calls out as needing a fixed rewrite.
var (
	coreTimestampPattern = regexp.MustCompile(`(<dcterms:(?:created|modified)[^>]*>)[^<]*(</dcterms:(?:created|modified)>)`)
	coreRevisionPattern  = regexp.MustCompile(`(<cp:revision>)[^<]*(</cp:revision>)`)
)

const fixedCoreTimestamp = "1980-01-01T00:00:00Z"
const fixedRevision = "1"

// NormalizeDOCX rewrites an input DOCX archive (itself a ZIP container)
// into the deterministic form spec.md §4.I requires: entries sorted by
// path, fixed per-entry timestamps, and a rewritten docProps/core.xml with
// fixed created/modified/revision values. Content entries are otherwise
// byte-for-byte preserved.
func NormalizeDOCX(input []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(input), int64(len(input)))
	if err != nil {
		return nil, err
	}

	type fileEntry struct {
		name string
		data []byte
	}
	files := make([]fileEntry, 0, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		if f.Name == "docProps/core.xml" {
			data = normalizeCoreProperties(data)
		}
		files = append(files, fileEntry{name: f.Name, data: data})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		hdr := &zip.FileHeader{Name: f.name, Modified: packEpoch, Method: zip.Deflate}
		hdr.SetMode(0o644)
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(f.data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func normalizeCoreProperties(data []byte) []byte {
	data = coreTimestampPattern.ReplaceAll(data, []byte(`${1}`+fixedCoreTimestamp+`${2}`))
	data = coreRevisionPattern.ReplaceAll(data, []byte(`${1}`+fixedRevision+`${2}`))
	return data
}

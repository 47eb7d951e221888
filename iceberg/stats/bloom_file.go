package stats

import (
	"bytes"
	"encoding/binary"
	"io"

	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

// NamedFilter pairs a bloom filter with the field it was built over, the
// unit the bloom-filter sidecar file holds one or more of.
type NamedFilter struct {
	FieldID int
	Name    string
	Filter  *Filter
}

// WriteFilterFile writes the sidecar framing: magic+version+count header,
// then one {field_id, name_len, name, filter_len, filter_bytes} record per
// NamedFilter.
func WriteFilterFile(w io.Writer, filters []NamedFilter) error {
	if _, err := w.Write([]byte(bloomMagic)); err != nil {
		return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write magic", err)
	}
	if _, err := w.Write([]byte{bloomVersion}); err != nil {
		return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write version", err)
	}
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(filters)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write count", err)
	}

	for _, nf := range filters {
		var fieldIDBuf, nameLenBuf, filterLenBuf [4]byte
		binary.LittleEndian.PutUint32(fieldIDBuf[:], uint32(nf.FieldID))
		if _, err := w.Write(fieldIDBuf[:]); err != nil {
			return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write field id", err)
		}

		nameBytes := []byte(nf.Name)
		binary.LittleEndian.PutUint32(nameLenBuf[:], uint32(len(nameBytes)))
		if _, err := w.Write(nameLenBuf[:]); err != nil {
			return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write name length", err)
		}
		if _, err := w.Write(nameBytes); err != nil {
			return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write name", err)
		}

		var filterBuf bytes.Buffer
		if err := nf.Filter.Serialize(&filterBuf); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(filterLenBuf[:], uint32(filterBuf.Len()))
		if _, err := w.Write(filterLenBuf[:]); err != nil {
			return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write filter length", err)
		}
		if _, err := w.Write(filterBuf.Bytes()); err != nil {
			return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write filter bytes", err)
		}
	}
	return nil
}

// ReadFilterFile is the inverse of WriteFilterFile.
func ReadFilterFile(r io.Reader) ([]NamedFilter, error) {
	magic := make([]byte, len(bloomMagic)+1)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read magic", err)
	}
	if string(magic[:len(bloomMagic)]) != bloomMagic {
		return nil, pkgerrors.Newf(codeBloomIO, pkgerrors.KindValidation, "bad filter-file magic %q", magic[:len(bloomMagic)])
	}

	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read count", err)
	}
	count := binary.LittleEndian.Uint32(countBuf[:])

	out := make([]NamedFilter, 0, count)
	for i := uint32(0); i < count; i++ {
		var fieldIDBuf, nameLenBuf, filterLenBuf [4]byte
		if _, err := io.ReadFull(r, fieldIDBuf[:]); err != nil {
			return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read field id", err)
		}
		if _, err := io.ReadFull(r, nameLenBuf[:]); err != nil {
			return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read name length", err)
		}
		nameBuf := make([]byte, binary.LittleEndian.Uint32(nameLenBuf[:]))
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read name", err)
		}
		if _, err := io.ReadFull(r, filterLenBuf[:]); err != nil {
			return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read filter length", err)
		}
		filterBytes := make([]byte, binary.LittleEndian.Uint32(filterLenBuf[:]))
		if _, err := io.ReadFull(r, filterBytes); err != nil {
			return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read filter bytes", err)
		}
		f, err := DeserializeFilter(bytes.NewReader(filterBytes))
		if err != nil {
			return nil, err
		}
		out = append(out, NamedFilter{FieldID: int(binary.LittleEndian.Uint32(fieldIDBuf[:])), Name: string(nameBuf), Filter: f})
	}
	return out, nil
}

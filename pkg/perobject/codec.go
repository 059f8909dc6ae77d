package perobject

import (
	"strconv"
	"strings"
)

// Blob layout: a run of records, each
//
//	<tag><keyLen>:<key><valueLen>:<value>
//
// where tag is one of blobTagInt, blobTagFloat or blobTagString and the
// lengths are decimal byte counts. Records are written grouped by tag in
// that order and sorted by key inside each group, so equal state always
// encodes to the same bytes.
const (
	blobTagInt    = 'I'
	blobTagFloat  = 'F'
	blobTagString = 'S'
)

type blobRecord struct {
	tag   byte
	key   string
	value string
}

func appendRecord(b *strings.Builder, tag byte, key, value string) {
	b.WriteByte(tag)
	b.WriteString(strconv.Itoa(len(key)))
	b.WriteByte(':')
	b.WriteString(key)
	b.WriteString(strconv.Itoa(len(value)))
	b.WriteByte(':')
	b.WriteString(value)
}

func formatInt(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func parseInt(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return int32(v), err
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

// blobDecoder walks a blob one record at a time.
type blobDecoder struct {
	src string
	pos int
}

func (d *blobDecoder) done() bool {
	return d.pos >= len(d.src)
}

// next decodes the record at the cursor. On failure the cursor is left at
// the start of the bad record.
func (d *blobDecoder) next() (blobRecord, error) {
	start := d.pos
	tag := d.src[d.pos]
	switch tag {
	case blobTagInt, blobTagFloat, blobTagString:
	default:
		return blobRecord{}, &BlobError{Offset: start, Reason: "unknown tag " + strconv.QuoteRune(rune(tag))}
	}
	d.pos++

	key, err := d.field(start, "key")
	if err != nil {
		d.pos = start
		return blobRecord{}, err
	}
	value, err := d.field(start, "value")
	if err != nil {
		d.pos = start
		return blobRecord{}, err
	}
	return blobRecord{tag: tag, key: key, value: value}, nil
}

func (d *blobDecoder) field(start int, name string) (string, error) {
	colon := strings.IndexByte(d.src[d.pos:], ':')
	if colon <= 0 {
		return "", &BlobError{Offset: start, Reason: "missing " + name + " length"}
	}
	n, err := strconv.Atoi(d.src[d.pos : d.pos+colon])
	if err != nil || n < 0 {
		return "", &BlobError{Offset: start, Reason: "bad " + name + " length"}
	}
	begin := d.pos + colon + 1
	if n > len(d.src)-begin {
		return "", &BlobError{Offset: start, Reason: name + " truncated"}
	}
	d.pos = begin + n
	return d.src[begin:d.pos], nil
}

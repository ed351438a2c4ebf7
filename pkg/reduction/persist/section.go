package persist

import (
	"bytes"

	"google.golang.org/protobuf/encoding/protowire"
)

// sectionMagic starts the option section of a model.
var sectionMagic = []byte("RDXC")

// WriteSection frames payload as the option section and appends the rest of the model after it.
func WriteSection(payload, rest []byte) []byte {
	out := make([]byte, 0, len(sectionMagic)+protowire.SizeVarint(uint64(len(payload)))+len(payload)+len(rest))
	out = append(out, sectionMagic...)
	out = protowire.AppendVarint(out, uint64(len(payload)))
	out = append(out, payload...)

	return append(out, rest...)
}

// ReadSection splits a model into its option section and the bytes after it.
// A model that does not start with an option section returns ErrNoSection and
// the whole buffer as rest.
func ReadSection(buf []byte) ([]byte, []byte, error) {
	if !bytes.HasPrefix(buf, sectionMagic) {
		return nil, buf, ErrNoSection
	}

	size, n := protowire.ConsumeVarint(buf[len(sectionMagic):])
	if n < 0 {
		return nil, nil, corrupt("section length: %v", protowire.ParseError(n))
	}

	start := len(sectionMagic) + n
	if size > uint64(len(buf)-start) {
		return nil, nil, corrupt("section of %d bytes in a buffer of %d", size, len(buf)-start)
	}

	end := start + int(size)

	return buf[start:end], buf[end:], nil
}

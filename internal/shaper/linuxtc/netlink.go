package linuxtc

import (
	"bytes"
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"
)

// structBytes encodes a fixed-size struct in host byte order, the
// layout netlink messages and their embedded C structs are defined in.
func structBytes(v any) []byte {
	buf := new(bytes.Buffer)
	// panics only on an unsupported type, never on the fixed-size structs
	// this package passes it
	if err := binary.Write(buf, binary.NativeEndian, v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// readStruct decodes buf's leading bytes into v, the inverse of
// structBytes.
func readStruct(buf []byte, v any) {
	binary.Read(bytes.NewReader(buf), binary.NativeEndian, v)
}

// encodeAttr wraps data in a netlink attribute header (struct nlattr)
// and pads the result to a 4-byte boundary, the alignment every
// NLA_NEXT/RTA_NEXT walk assumes.
func encodeAttr(attrType uint16, data []byte) []byte {
	hdr := unix.NlAttr{Len: uint16(unix.SizeofNlAttr + len(data)), Type: attrType}
	buf := structBytes(hdr)
	buf = append(buf, data...)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// encodeNestedOptions wraps an already-built sequence of bytes (a fixed
// struct optionally followed by further attributes, as netem's
// TCA_OPTIONS payload is) as the qdisc's TCA_OPTIONS attribute.
func encodeNestedOptions(payload []byte) []byte {
	return encodeAttr(tcaOptions, payload)
}

// nulTerminated renders s as a NUL-terminated byte string, the form
// TCA_KIND and similar string attributes use.
func nulTerminated(s string) []byte {
	return append([]byte(s), 0)
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

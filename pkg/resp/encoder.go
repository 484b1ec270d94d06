package resp

import (
	"math"
	"strconv"
	"strings"
)

// Version selects which protocol a connection is currently speaking.
type Version int

const (
	// V2 is the default protocol version a connection starts at.
	V2 Version = 2
	// V3 is switched to by HELLO 3.
	V3 Version = 3
)

// Encoder serializes Values against a declared protocol version, applying
// the RESP3→RESP2 downgrade table of spec §4.1 when pinned to V2.
type Encoder struct {
	version Version
}

// NewEncoder returns an Encoder starting at RESP2, the protocol version
// every connection begins at before a successful HELLO 3.
func NewEncoder() *Encoder { return &Encoder{version: V2} }

// Version reports the encoder's current protocol version.
func (e *Encoder) Version() Version { return e.version }

// SetVersion switches the encoder's protocol version, as HELLO does.
func (e *Encoder) SetVersion(v Version) { e.version = v }

// Encode appends the wire representation of v to dst and returns the
// extended slice.
func (e *Encoder) Encode(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindSimpleString:
		return appendLine(dst, markerSimpleString, stripCRLF(v.Str))
	case KindError:
		return appendLine(dst, markerError, stripCRLF(v.Str))
	case KindInteger:
		return appendInt(dst, markerInteger, v.Int)
	case KindBulkString:
		if v.BulkNull {
			return e.encodeNull(dst, true)
		}
		return appendBulkBytes(dst, markerBulkString, v.Bulk)
	case KindArray:
		if v.ArrayNull {
			return e.encodeNullArray(dst)
		}
		dst = appendInt(dst, markerArray, int64(len(v.Elems)))
		for _, el := range v.Elems {
			dst = e.Encode(dst, el)
		}
		return dst
	case KindMap:
		return e.encodeMap(dst, v.Pairs, false)
	case KindSet:
		return e.encodeSet(dst, v.Elems)
	case KindBoolean:
		return e.encodeBoolean(dst, v.Bool)
	case KindDouble:
		return e.encodeDouble(dst, v.Float)
	case KindBigNumber:
		return e.encodeBigNumber(dst, v.Str)
	case KindVerbatimString:
		return e.encodeVerbatim(dst, v.Format, v.Str)
	case KindNull:
		return e.encodeNull(dst, false)
	case KindPush:
		if e.version == V2 {
			// Out-of-band pushes have no RESP2 representation; callers at
			// RESP2 should not construct them, but degrade to a plain array
			// rather than corrupt the stream.
			dst = appendInt(dst, markerArray, int64(len(v.Elems)))
		} else {
			dst = appendInt(dst, markerPush, int64(len(v.Elems)))
		}
		for _, el := range v.Elems {
			dst = e.Encode(dst, el)
		}
		return dst
	case KindBlobError:
		if e.version == V2 {
			return appendBulkBytes(dst, markerBulkString, v.Bulk)
		}
		return appendBulkBytes(dst, markerBlobError, v.Bulk)
	case KindAttribute:
		return e.encodeMap(dst, v.Pairs, true)
	default:
		return dst
	}
}

func (e *Encoder) encodeNull(dst []byte, wasBulk bool) []byte {
	if e.version == V2 {
		_ = wasBulk
		return append(dst, markerBulkString, '-', '1', '\r', '\n')
	}
	return append(dst, markerNull, '\r', '\n')
}

func (e *Encoder) encodeNullArray(dst []byte) []byte {
	if e.version == V2 {
		return append(dst, markerArray, '-', '1', '\r', '\n')
	}
	return append(dst, markerNull, '\r', '\n')
}

func (e *Encoder) encodeMap(dst []byte, pairs []Pair, attribute bool) []byte {
	marker := byte(markerMap)
	if attribute {
		marker = markerAttribute
	}
	if e.version == V2 {
		// Downgrade: flat Array of alternating key/value (spec §4.1). An
		// attribute has no RESP2 representation at all; since attributes
		// are metadata about the value that follows, an empty-array
		// degrade is the least surprising choice for a RESP2 client that
		// should never see one from this server.
		if attribute {
			return append(dst, markerArray, '0', '\r', '\n')
		}
		dst = appendInt(dst, markerArray, int64(len(pairs)*2))
		for _, p := range pairs {
			dst = e.Encode(dst, p.Key)
			dst = e.Encode(dst, p.Value)
		}
		return dst
	}
	dst = appendInt(dst, marker, int64(len(pairs)))
	for _, p := range pairs {
		dst = e.Encode(dst, p.Key)
		dst = e.Encode(dst, p.Value)
	}
	return dst
}

func (e *Encoder) encodeSet(dst []byte, elems []Value) []byte {
	marker := byte(markerSet)
	if e.version == V2 {
		marker = markerArray
	}
	dst = appendInt(dst, marker, int64(len(elems)))
	for _, el := range elems {
		dst = e.Encode(dst, el)
	}
	return dst
}

func (e *Encoder) encodeBoolean(dst []byte, b bool) []byte {
	if e.version == V2 {
		if b {
			return appendInt(dst, markerInteger, 1)
		}
		return appendInt(dst, markerInteger, 0)
	}
	if b {
		return append(dst, markerBoolean, 't', '\r', '\n')
	}
	return append(dst, markerBoolean, 'f', '\r', '\n')
}

func (e *Encoder) encodeDouble(dst []byte, f float64) []byte {
	s := formatDouble(f)
	if e.version == V2 {
		return appendBulkBytes(dst, markerBulkString, []byte(s))
	}
	return appendLine(dst, markerDouble, s)
}

func (e *Encoder) encodeBigNumber(dst []byte, decimal string) []byte {
	if e.version == V2 {
		return appendBulkBytes(dst, markerBulkString, []byte(decimal))
	}
	return appendLine(dst, markerBigNumber, decimal)
}

func (e *Encoder) encodeVerbatim(dst []byte, format, body string) []byte {
	if e.version == V2 {
		return appendBulkBytes(dst, markerBulkString, []byte(body))
	}
	payload := format + ":" + body
	return appendBulkBytes(dst, markerVerbatim, []byte(payload))
}

// formatDouble renders a float64 as the shortest round-trip decimal, with
// the special values spelled out per spec §4.1.
func formatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func appendLine(dst []byte, marker byte, s string) []byte {
	dst = append(dst, marker)
	dst = append(dst, s...)
	return append(dst, '\r', '\n')
}

func appendInt(dst []byte, marker byte, n int64) []byte {
	dst = append(dst, marker)
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, '\r', '\n')
}

func appendBulkBytes(dst []byte, marker byte, b []byte) []byte {
	dst = append(dst, marker)
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, b...)
	return append(dst, '\r', '\n')
}

// stripCRLF removes CR/LF from a SimpleString/Error payload so the encoder
// never emits bytes that would break framing (spec §4.1): each CR and LF is
// replaced with a space and the value keeps its SimpleString/Error type,
// rather than being routed through a separate BulkString path. Error
// payloads can carry client bytes (an unknown command's name is echoed
// back), so this also covers untrusted data.
func stripCRLF(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleValues(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind Kind
	}{
		{"simple string", "+OK\r\n", KindSimpleString},
		{"error", "-ERR boom\r\n", KindError},
		{"integer", ":1000\r\n", KindInteger},
		{"bulk string", "$5\r\nhello\r\n", KindBulkString},
		{"null bulk", "$-1\r\n", KindBulkString},
		{"array", "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n", KindArray},
		{"null array", "*-1\r\n", KindArray},
		{"map", "%1\r\n+k\r\n:1\r\n", KindMap},
		{"set", "~2\r\n:1\r\n:2\r\n", KindSet},
		{"boolean true", "#t\r\n", KindBoolean},
		{"boolean false", "#f\r\n", KindBoolean},
		{"double", ",3.14\r\n", KindDouble},
		{"big number", "(3492890328409238509324850943850943825024385\r\n", KindBigNumber},
		{"verbatim", "=15\r\ntxt:Some string\r\n", KindVerbatimString},
		{"null", "_\r\n", KindNull},
		{"push", ">1\r\n+hi\r\n", KindPush},
		{"blob error", "!21\r\nSYNTAX invalid syntax\r\n", KindBlobError},
	}

	var p Parser
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, v, status, err := p.Parse([]byte(tt.in))
			require.NoError(t, err)
			require.Equal(t, StatusComplete, status)
			assert.Equal(t, len(tt.in), n)
			assert.Equal(t, tt.kind, v.Kind)
		})
	}
}

func TestParseIncompleteNeverConsumes(t *testing.T) {
	full := "*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n"
	var p Parser
	for i := 1; i < len(full); i++ {
		n, _, status, err := p.Parse([]byte(full[:i]))
		require.NoError(t, err)
		require.Equal(t, StatusIncomplete, status, "prefix length %d", i)
		assert.Equal(t, 0, n)
	}
	n, v, status, err := p.Parse([]byte(full))
	require.NoError(t, err)
	require.Equal(t, StatusComplete, status)
	assert.Equal(t, len(full), n)
	assert.Equal(t, KindArray, v.Kind)
}

func TestParseRestartability(t *testing.T) {
	full := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"
	var p Parser
	for split := 0; split < len(full); split++ {
		first := []byte(full[:split])
		n1, _, status1, err1 := p.Parse(first)
		require.NoError(t, err1)
		if status1 == StatusComplete {
			continue
		}
		require.Equal(t, StatusIncomplete, status1)
		assert.Equal(t, 0, n1)

		extended := []byte(full)
		n2, v2, status2, err2 := p.Parse(extended)
		require.NoError(t, err2)
		require.Equal(t, StatusComplete, status2)

		n3, v3, status3, err3 := p.Parse([]byte(full))
		require.NoError(t, err3)
		require.Equal(t, status2, status3)
		assert.Equal(t, n2, n3)
		assert.Equal(t, v2, v3)
	}
}

func TestParseInvalidCRLF(t *testing.T) {
	var p Parser
	_, _, status, err := p.Parse([]byte("+OK\n"))
	assert.Equal(t, StatusInvalid, status)
	assert.Error(t, err)
}

func TestParseInvalidMarker(t *testing.T) {
	var p Parser
	_, _, status, err := p.Parse([]byte("@foo\r\n"))
	assert.Equal(t, StatusInvalid, status)
	assert.Error(t, err)
}

func TestParseIntegerLeadingZeroRejected(t *testing.T) {
	var p Parser
	_, _, status, _ := p.Parse([]byte(":007\r\n"))
	assert.Equal(t, StatusInvalid, status)
}

func TestParseIntegerPlusSignRejected(t *testing.T) {
	var p Parser
	_, _, status, _ := p.Parse([]byte(":+7\r\n"))
	assert.Equal(t, StatusInvalid, status)
}

func TestParseIntegerZeroItselfAllowed(t *testing.T) {
	var p Parser
	n, v, status, err := p.Parse([]byte(":0\r\n"))
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, status)
	assert.Equal(t, 4, n)
	assert.EqualValues(t, 0, v.Int)
}

func TestParseBulkMaxLenOverflow(t *testing.T) {
	p := Parser{MaxBulkLen: 4}
	_, _, status, err := p.Parse([]byte("$5\r\nhello\r\n"))
	assert.Equal(t, StatusInvalid, status)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrOverflowSize, perr.Kind)
}

func TestParseDepthOverflow(t *testing.T) {
	p := Parser{MaxDepth: 1}
	_, _, status, err := p.Parse([]byte("*1\r\n*1\r\n*1\r\n:1\r\n"))
	assert.Equal(t, StatusInvalid, status)
	require.Error(t, err)
}

func TestParseNestedArray(t *testing.T) {
	var p Parser
	n, v, status, err := p.Parse([]byte("*2\r\n*1\r\n:1\r\n$3\r\nfoo\r\n"))
	require.NoError(t, err)
	require.Equal(t, StatusComplete, status)
	assert.Equal(t, len("*2\r\n*1\r\n:1\r\n$3\r\nfoo\r\n"), n)
	require.Len(t, v.Elems, 2)
	assert.Equal(t, KindArray, v.Elems[0].Kind)
	assert.Equal(t, KindBulkString, v.Elems[1].Kind)
}

func TestParseDoubleSpecialValues(t *testing.T) {
	var p Parser
	_, v, status, err := p.Parse([]byte(",inf\r\n"))
	require.NoError(t, err)
	require.Equal(t, StatusComplete, status)
	assert.True(t, v.Float > 0)

	_, v, status, err = p.Parse([]byte(",-inf\r\n"))
	require.NoError(t, err)
	require.Equal(t, StatusComplete, status)
	assert.True(t, v.Float < 0)

	_, _, status, err = p.Parse([]byte(",nan\r\n"))
	assert.Equal(t, StatusInvalid, status)
	assert.Error(t, err)
}

func TestReadCommandArray(t *testing.T) {
	var p Parser
	n, args, status, err := ReadCommand([]byte("*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n"), &p)
	require.NoError(t, err)
	require.Equal(t, StatusComplete, status)
	assert.Equal(t, 22, n)
	require.Len(t, args, 2)
	assert.Equal(t, "GET", string(args[0]))
	assert.Equal(t, "key", string(args[1]))
}

func TestReadCommandInline(t *testing.T) {
	n, args, status, err := ReadCommand([]byte("SET foo bar\r\n"), nil)
	require.NoError(t, err)
	require.Equal(t, StatusComplete, status)
	assert.Equal(t, len("SET foo bar\r\n"), n)
	require.Len(t, args, 3)
	assert.Equal(t, "SET", string(args[0]))
	assert.Equal(t, "foo", string(args[1]))
	assert.Equal(t, "bar", string(args[2]))
}

func TestReadCommandInlineQuoted(t *testing.T) {
	n, args, status, err := ReadCommand([]byte("SET foo \"bar baz\"\r\n"), nil)
	require.NoError(t, err)
	require.Equal(t, StatusComplete, status)
	assert.Equal(t, len("SET foo \"bar baz\"\r\n"), n)
	require.Len(t, args, 3)
	assert.Equal(t, "bar baz", string(args[2]))
}

func TestReadCommandInlineIncomplete(t *testing.T) {
	n, args, status, err := ReadCommand([]byte("SET foo bar"), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusIncomplete, status)
	assert.Equal(t, 0, n)
	assert.Nil(t, args)
}

func TestReadCommandPipelined(t *testing.T) {
	buf := []byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n")
	var p Parser
	n1, args1, status1, err1 := ReadCommand(buf, &p)
	require.NoError(t, err1)
	require.Equal(t, StatusComplete, status1)
	require.Len(t, args1, 1)
	assert.Equal(t, "PING", string(args1[0]))

	n2, args2, status2, err2 := ReadCommand(buf[n1:], &p)
	require.NoError(t, err2)
	require.Equal(t, StatusComplete, status2)
	require.Len(t, args2, 1)
	assert.Equal(t, "PING", string(args2[0]))
	assert.Equal(t, len(buf), n1+n2)
}

// Package frame implements the line-oriented frame codec: a
// non-mutating completeness check, a parser for checked buffers, and
// the encoder that is its exact inverse.
package frame

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/danmuck/notectl/internal/protocol"
)

var crlf = []byte("\r\n")

// Frame is one complete wire message: the decoded command plus the
// byte span it occupied in the stream.
type Frame struct {
	Cmd protocol.Command
	Len int
}

// Check reports whether buf begins with one complete frame and returns
// the number of bytes it occupies. It never mutates buf. A missing tag
// byte or a missing CRLF terminator yields protocol.ErrIncomplete; an
// unrecognized tag yields protocol.InvalidTagError.
func Check(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, protocol.ErrIncomplete
	}
	switch buf[0] {
	case protocol.TagRead, protocol.TagQuit:
		return 1, nil
	case protocol.TagCreate, protocol.TagList, protocol.TagDisconnect, protocol.TagID:
		end := bytes.Index(buf[1:], crlf)
		if end < 0 {
			return 0, protocol.ErrIncomplete
		}
		return 1 + end + len(crlf), nil
	default:
		return 0, protocol.InvalidTagError{Tag: buf[0]}
	}
}

// Parse materializes the command at the head of buf. Callers invoke it
// only after Check succeeds; the returned Frame.Len tells the caller
// how many bytes to drop from its buffer.
func Parse(buf []byte) (Frame, error) {
	n, err := Check(buf)
	if err != nil {
		return Frame{}, err
	}
	line := buf[1:n]
	if n > 1 {
		line = buf[1 : n-len(crlf)]
	}
	switch buf[0] {
	case protocol.TagRead:
		return Frame{Cmd: protocol.Read(), Len: n}, nil
	case protocol.TagQuit:
		return Frame{Cmd: protocol.Quit(), Len: n}, nil
	case protocol.TagCreate:
		return Frame{Cmd: protocol.Create(string(line)), Len: n}, nil
	case protocol.TagList:
		entries, err := parseEntries(line)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Cmd: protocol.List(entries), Len: n}, nil
	case protocol.TagDisconnect:
		id, err := parseID(line)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Cmd: protocol.Disconnect(id), Len: n}, nil
	case protocol.TagID:
		id, err := parseID(line)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Cmd: protocol.ID(id), Len: n}, nil
	default:
		return Frame{}, protocol.InvalidTagError{Tag: buf[0]}
	}
}

// Encode renders cmd as one complete wire frame.
func Encode(cmd protocol.Command) []byte {
	switch cmd.Kind {
	case protocol.KindRead, protocol.KindQuit:
		return []byte{byte(cmd.Kind)}
	case protocol.KindCreate:
		out := make([]byte, 0, 1+len(cmd.Text)+len(crlf))
		out = append(out, protocol.TagCreate)
		out = append(out, cmd.Text...)
		return append(out, crlf...)
	case protocol.KindList:
		var b bytes.Buffer
		b.WriteByte(protocol.TagList)
		for _, entry := range cmd.Entries {
			b.WriteString(strconv.Itoa(len(entry)))
			b.WriteByte('#')
			b.WriteString(entry)
		}
		b.Write(crlf)
		return b.Bytes()
	case protocol.KindDisconnect, protocol.KindID:
		out := make([]byte, 0, 24)
		out = append(out, byte(cmd.Kind))
		out = strconv.AppendUint(out, cmd.ID, 10)
		return append(out, crlf...)
	default:
		return nil
	}
}

// parseEntries decodes a List body: for each entry a decimal byte
// length, a '#' delimiter, then exactly that many bytes, with no
// inter-entry separator.
func parseEntries(line []byte) ([]string, error) {
	entries := make([]string, 0)
	i := 0
	for i < len(line) {
		sep := bytes.IndexByte(line[i:], '#')
		if sep <= 0 {
			return nil, fmt.Errorf("%w: missing length prefix at offset %d", protocol.ErrBadLength, i)
		}
		length, err := strconv.ParseUint(string(line[i:i+sep]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", protocol.ErrBadLength, string(line[i:i+sep]))
		}
		i += sep + 1
		if uint64(len(line)-i) < length {
			return nil, fmt.Errorf("%w: want %d bytes, have %d", protocol.ErrShortEntry, length, len(line)-i)
		}
		entries = append(entries, string(line[i:i+int(length)]))
		i += int(length)
	}
	return entries, nil
}

func parseID(line []byte) (uint64, error) {
	id, err := strconv.ParseUint(string(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", protocol.ErrBadInteger, string(line))
	}
	return id, nil
}

// Package eventstream implements the progress stream line protocol: each
// message is "data: <JSON>" followed by a blank line.
package eventstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/samirrijal/orbital/internal/core/domain"
)

// ContentType is the media type of a progress stream.
const ContentType = "text/event-stream"

var (
	dataPrefix = []byte("data: ")
	delimiter  = []byte("\n\n")
)

// Encode writes ev as one message.
func Encode(w io.Writer, ev domain.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(dataPrefix)+len(data)+len(delimiter))
	buf = append(buf, dataPrefix...)
	buf = append(buf, data...)
	buf = append(buf, delimiter...)
	_, err = w.Write(buf)
	return err
}

// Decoder reads messages from a stream. Reads may end mid-message; the
// partial fragment is kept until its delimiter arrives.
type Decoder struct {
	r       io.Reader
	buf     []byte
	pending [][]byte
	chunk   []byte
	err     error
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, chunk: make([]byte, 4096)}
}

// Feed appends a chunk and returns the complete message payloads it
// finished, without the "data: " prefix. Incomplete input stays buffered.
func (d *Decoder) Feed(chunk []byte) [][]byte {
	d.buf = append(d.buf, chunk...)
	var out [][]byte
	for {
		i := bytes.Index(d.buf, delimiter)
		if i < 0 {
			break
		}
		msg := bytes.TrimSpace(d.buf[:i])
		d.buf = d.buf[i+len(delimiter):]
		if len(msg) == 0 {
			continue
		}
		msg = bytes.TrimPrefix(msg, dataPrefix)
		out = append(out, append([]byte(nil), msg...))
	}
	// Keep the retained fragment from pinning a large backing array.
	if len(d.buf) == 0 {
		d.buf = d.buf[:0:0]
	}
	return out
}

// Buffered returns the retained partial fragment.
func (d *Decoder) Buffered() []byte {
	return d.buf
}

// Next returns the next raw message payload. It returns io.EOF when the
// stream ends cleanly and io.ErrUnexpectedEOF when it ends mid-message.
func (d *Decoder) Next() ([]byte, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			if errors.Is(d.err, io.EOF) && len(bytes.TrimSpace(d.buf)) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, d.err
		}
		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.pending = append(d.pending, d.Feed(d.chunk[:n])...)
		}
		if err != nil {
			d.err = err
		}
	}
	msg := d.pending[0]
	d.pending = d.pending[1:]
	return msg, nil
}

// NextEvent decodes the next message as a progress event.
func (d *Decoder) NextEvent() (domain.ProgressEvent, error) {
	raw, err := d.Next()
	if err != nil {
		return domain.ProgressEvent{}, err
	}
	var ev domain.ProgressEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return domain.ProgressEvent{}, err
	}
	return ev, nil
}

package usecase

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// sseDataPrefix marks payload lines in the upstream event stream.
const sseDataPrefix = "data: "

// sseDoneSentinel terminates the upstream stream.
const sseDoneSentinel = "[DONE]"

// StreamRelay forwards upstream SSE bytes to the caller verbatim while
// concurrently reconstructing the assistant transcript from incremental
// deltas. Relaying never blocks on parse results: a chunk that fails to
// parse is forwarded anyway and simply contributes nothing to the
// transcript.
type StreamRelay struct {
	transcript strings.Builder
	pending    []byte
}

func NewStreamRelay() *StreamRelay {
	return &StreamRelay{}
}

// Copy reads src until EOF, writing every chunk to dst byte-for-byte and
// unconditionally, and feeding the same bytes to the transcript parser. A
// write error (client disconnect) stops the relay immediately; in that case
// the accumulated transcript reflects only what was relayed so far.
func (r *StreamRelay) Copy(dst io.Writer, src io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			r.feed(buf[:n])
		}
		if readErr == io.EOF {
			r.finish()
			return nil
		}
		if readErr != nil {
			r.finish()
			return readErr
		}
	}
}

// Transcript returns the assistant text reconstructed so far.
func (r *StreamRelay) Transcript() string {
	return r.transcript.String()
}

func (r *StreamRelay) feed(chunk []byte) {
	r.pending = append(r.pending, chunk...)
	for {
		idx := bytes.IndexByte(r.pending, '\n')
		if idx < 0 {
			return
		}
		line := string(r.pending[:idx])
		r.pending = r.pending[idx+1:]
		r.processLine(line)
	}
}

// finish drains a trailing line that arrived without a newline.
func (r *StreamRelay) finish() {
	if len(r.pending) > 0 {
		r.processLine(string(r.pending))
		r.pending = nil
	}
}

func (r *StreamRelay) processLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, sseDataPrefix) {
		return
	}
	payload := line[len(sseDataPrefix):]
	if strings.TrimSpace(payload) == sseDoneSentinel {
		return
	}
	if delta, ok := parseDelta(payload); ok {
		r.transcript.WriteString(delta)
	}
}

// parseDelta extracts the incremental content delta from one SSE payload.
// Any shape mismatch yields (_, false): the caller skips and keeps relaying.
func parseDelta(payload string) (string, bool) {
	var event struct {
		Choices []struct {
			Delta struct {
				Content *string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return "", false
	}
	if len(event.Choices) == 0 || event.Choices[0].Delta.Content == nil {
		return "", false
	}
	return *event.Choices[0].Delta.Content, true
}

// ErrorEvent formats the single synthetic SSE error event emitted when the
// upstream fails before any bytes were relayed.
func ErrorEvent(message string) string {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return "data: {\"error\": \"streaming error\"}\n\n"
	}
	return sseDataPrefix + string(payload) + "\n\n"
}

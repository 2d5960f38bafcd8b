package schema

import "fmt"

// StreamRole marks a cell as bound to a standard stream.
type StreamRole string

const (
	StreamNone   StreamRole = ""
	StreamStdin  StreamRole = "stdin"
	StreamStdout StreamRole = "stdout"
	StreamStderr StreamRole = "stderr"
)

// ParseStreamRole converts a stream attribute value into a StreamRole.
// The empty string and "none" both mean StreamNone.
func ParseStreamRole(s string) (StreamRole, error) {
	switch s {
	case "", "none":
		return StreamNone, nil
	case string(StreamStdin):
		return StreamStdin, nil
	case string(StreamStdout):
		return StreamStdout, nil
	case string(StreamStderr):
		return StreamStderr, nil
	default:
		return StreamNone, fmt.Errorf("unknown stream role %q: must be one of stdin, stdout, stderr", s)
	}
}

// IsStream reports whether r is one of stdin, stdout or stderr.
func (r StreamRole) IsStream() bool {
	return r == StreamStdin || r == StreamStdout || r == StreamStderr
}

// String returns "none" for StreamNone so diagnostics never print an empty role.
func (r StreamRole) String() string {
	if r == StreamNone {
		return "none"
	}
	return string(r)
}

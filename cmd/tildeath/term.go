package main

import (
	"io"
	"os"
)

// stepReader wraps stdin for the --step debugger. On a real terminal it
// puts the terminal into raw mode and turns each single keypress into a
// one-character "line" (Debugger.stepHook reads a line per command), so the
// stepper never needs an Enter key. Piped input (tests, scripted runs) is
// left in ordinary line-buffered mode, matching the reference CLI's
// behavior when stdin isn't a tty.
type stepReader struct {
	r       io.Reader
	restore func()
}

// newStepReader builds the debugger's input reader for f, enabling raw mode
// only when f is an interactive terminal.
func newStepReader(f *os.File) *stepReader {
	restore, err := makeRaw(int(f.Fd()))
	if err != nil {
		return &stepReader{r: f, restore: func() {}}
	}
	return &stepReader{r: &rawKeyReader{f: f}, restore: restore}
}

func (s *stepReader) Read(p []byte) (int, error) { return s.r.Read(p) }

// Close restores the terminal's original mode, if raw mode was entered.
func (s *stepReader) Close() error {
	s.restore()
	return nil
}

// rawKeyReader reads a single raw byte from f and reports it as a complete
// line: Enter/Return map to an empty line (repeat the last debugger
// command, same as pressing Enter in the reference CLI), everything else
// maps to that one character followed by '\n' so bufio.ReadString('\n')
// in the debugger returns immediately without waiting for Enter.
type rawKeyReader struct {
	f   *os.File
	buf []byte
}

func (k *rawKeyReader) Read(p []byte) (int, error) {
	if len(k.buf) > 0 {
		n := copy(p, k.buf)
		k.buf = k.buf[n:]
		return n, nil
	}

	var b [1]byte
	n, err := k.f.Read(b[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}

	var line []byte
	switch b[0] {
	case '\r', '\n':
		line = []byte{'\n'}
	default:
		line = []byte{b[0], '\n'}
	}

	nn := copy(p, line)
	if nn < len(line) {
		k.buf = line[nn:]
	}
	return nn, nil
}

package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawKeyReaderMapsSingleByteToLine(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	k := &rawKeyReader{f: r}
	go func() {
		w.Write([]byte("c"))
		w.Close()
	}()

	buf := make([]byte, 4)
	n, err := k.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "c\n", string(buf[:n]))
}

func TestRawKeyReaderMapsEnterToEmptyLine(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	k := &rawKeyReader{f: r}
	go func() {
		w.Write([]byte("\r"))
		w.Close()
	}()

	buf := make([]byte, 4)
	n, err := k.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "\n", string(buf[:n]))
}

func TestNewStepReaderFallsBackWhenNotATerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	sr := newStepReader(r)
	defer sr.Close()

	go func() {
		w.Write([]byte("hello\n"))
	}()

	buf := make([]byte, 16)
	n, err := sr.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(buf[:n]))
}

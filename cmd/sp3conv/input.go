package main

import (
	"os"

	"github.com/signalsfoundry/sp3-orbit-converter/sp3"
)

// lazyFile opens its file on the first read and closes it at the end, so
// that an unreadable file surfaces as a parse error of that file and only
// one input is open at a time.
type lazyFile struct {
	path string
	f    *os.File
	err  error
	done bool
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	if l.f == nil {
		if l.done {
			return 0, os.ErrClosed
		}
		if l.f, l.err = os.Open(l.path); l.err != nil {
			return 0, l.err
		}
	}
	n, err := l.f.Read(p)
	if err != nil {
		_ = l.f.Close()
		l.f, l.done = nil, true
	}
	return n, err
}

// Close releases the file if the parser stopped before reading to the end.
func (l *lazyFile) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f, l.done = nil, true
	return err
}

func openInputs(paths []string) ([]sp3.Input, func()) {
	inputs := make([]sp3.Input, 0, len(paths))
	files := make([]*lazyFile, 0, len(paths))
	for _, p := range paths {
		lf := &lazyFile{path: p}
		files = append(files, lf)
		inputs = append(inputs, sp3.Input{Name: p, Reader: lf})
	}
	return inputs, func() {
		for _, lf := range files {
			_ = lf.Close()
		}
	}
}

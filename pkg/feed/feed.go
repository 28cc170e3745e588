// Package feed provides line-oriented message sources for the simulator.
// A feed is finite: Next drains it to end-of-input, and Err reports any
// read failure afterwards.
package feed

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

type Feed interface {
	// Name identifies the feed in logs and diagnostics.
	Name() string
	// Next returns the next raw message, false once the feed is exhausted
	// or a read error occurred.
	Next() (string, bool)
	// Err returns the read error that terminated the feed, nil on clean EOF.
	Err() error
	Close() error
}

type lineFeed struct {
	name   string
	sc     *bufio.Scanner
	closer io.Closer
}

// OpenFile opens a market data file as a feed. A failed open is fatal for
// this feed only; the caller decides whether other feeds proceed.
func OpenFile(path string) (Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", path, err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &lineFeed{name: path, sc: sc, closer: f}, nil
}

// Stdin wraps standard input as a feed, for interactive runs with no feed
// files on the command line.
func Stdin() Feed {
	return &lineFeed{name: "stdin", sc: bufio.NewScanner(os.Stdin)}
}

// FromReader adapts any reader into a feed. Used by tests.
func FromReader(name string, r io.Reader) Feed {
	return &lineFeed{name: name, sc: bufio.NewScanner(r)}
}

func (f *lineFeed) Name() string { return f.name }

func (f *lineFeed) Next() (string, bool) {
	if f.sc.Scan() {
		return f.sc.Text(), true
	}
	return "", false
}

func (f *lineFeed) Err() error { return f.sc.Err() }

func (f *lineFeed) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

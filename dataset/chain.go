package dataset

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/phil-mansfield/ssbar/event"
)

// Chain reads a list of files one after another as if they were a single
// dataset. Files are opened lazily and closed as soon as they are exhausted.
type Chain struct {
	files  []string
	format Format

	i   int
	cur Reader
}

// Glob expands each pattern and returns the sorted, de-duplicated list of
// matching files. Patterns without glob metacharacters must name an existing
// file. It is an error for the whole list to match nothing.
func Glob(patterns ...string) ([]string, error) {
	seen := map[string]bool{}
	files := []string{}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "bad input pattern '%s'", pattern)
		}
		if len(matches) == 0 && !hasMeta(pattern) {
			if _, err := os.Stat(pattern); err != nil {
				return nil, errors.Wrapf(err, "input file '%s'", pattern)
			}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no input files match %q", patterns)
	}
	return files, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[\`)
}

// NewChain returns a Chain over files.
func NewChain(format Format, files ...string) *Chain {
	return &Chain{files: files, format: format}
}

// OpenFiles expands patterns with Glob and chains the results.
func OpenFiles(format Format, patterns ...string) (*Chain, error) {
	files, err := Glob(patterns...)
	if err != nil {
		return nil, err
	}
	return NewChain(format, files...), nil
}

// Files returns the files in the chain.
func (c *Chain) Files() []string { return c.files }

// File returns the file currently being read, or "" before the first call to
// Next and after the chain is exhausted.
func (c *Chain) File() string {
	if c.cur == nil || c.i >= len(c.files) {
		return ""
	}
	return c.files[c.i]
}

func (c *Chain) Next() (*event.Event, error) {
	for c.i < len(c.files) {
		if c.cur == nil {
			r, err := Open(c.files[c.i], c.format)
			if err != nil {
				return nil, err
			}
			c.cur = r
		}

		ev, err := c.cur.Next()
		if err == nil {
			return ev, nil
		} else if err != io.EOF {
			return nil, errors.Wrapf(err, "%s", c.files[c.i])
		}

		err = c.cur.Close()
		c.cur = nil
		c.i++
		if err != nil {
			return nil, errors.Wrapf(err, "closing %s", c.files[c.i-1])
		}
	}
	return nil, io.EOF
}

func (c *Chain) Close() error {
	if c.cur == nil {
		return nil
	}
	err := c.cur.Close()
	c.cur = nil
	return err
}

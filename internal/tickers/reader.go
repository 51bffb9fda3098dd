package tickers

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNotFound is returned when the ticker file does not exist.
	ErrNotFound = errors.New("ticker file not found")
	// ErrEmpty is returned when the ticker file holds no symbols.
	ErrEmpty = errors.New("no tickers to process")
)

// Read loads ticker symbols from path, one per line, preserving file order.
// Lines are trimmed; blank lines and lines starting with '#' are skipped.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open ticker file %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ticker file %s: %w", path, err)
	}
	return out, nil
}

// ReadNonEmpty is Read, but an empty list is an error.
func ReadNonEmpty(path string) ([]string, error) {
	list, err := Read(path)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	return list, nil
}

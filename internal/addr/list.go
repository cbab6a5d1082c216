package addr

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineLength bounds a single list line. Lists are one value per line, so
// anything longer is garbage and is skipped.
const maxLineLength = 64 * 1024

// IsComment reports whether a list line carries no value.
func IsComment(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}

// ParseList reads a newline-delimited list of addresses and networks.
// Empty lines and lines starting with '#' are ignored; lines that fail to
// parse are dropped. Values are deduplicated in first-seen order.
func ParseList(r io.Reader) (*Set, error) {
	set := NewSet(0)
	err := ScanList(r, func(ip IP) {
		set.Add(ip)
	})
	return set, err
}

// ScanList calls fn for every value in the list, in order, duplicates included.
func ScanList(r io.Reader, fn func(IP)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > maxLineLength {
			line = ""
		}
		if line != "" {
			line = strings.TrimSpace(strings.TrimSuffix(line, "\n"))
			if !IsComment(line) {
				if ip, perr := Parse(line); perr == nil {
					fn(ip)
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read list: %w", err)
		}
	}
}

// ParseStrings parses values from config text. Unlike ParseList it reports
// every value that fails to parse.
func ParseStrings(values []string) (*Set, error) {
	set := NewSet(len(values))
	var bad []string
	for _, v := range values {
		ip, err := Parse(v)
		if err != nil {
			bad = append(bad, v)
			continue
		}
		set.Add(ip)
	}
	if len(bad) > 0 {
		return set, fmt.Errorf("%w: %s", ErrParse, strings.Join(bad, ", "))
	}
	return set, nil
}

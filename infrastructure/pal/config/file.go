package config

import (
	"bufio"
	"fmt"
	"os"
)

// reader reads a config file's tokens: a path plus a single read method,
// errors wrapped with the file path for context.
type reader struct {
	path string
}

func newReader(path string) *reader {
	return &reader{path: path}
}

func (r *reader) read() ([]Token, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", r.path, err)
	}
	defer f.Close()

	var tokens []Token
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		tok, ok, err := tokenizeFileLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("config file %s:%d: %w", r.path, lineNo, err)
		}
		if ok {
			tokens = append(tokens, tok)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", r.path, err)
	}
	return tokens, nil
}

// configPathArgument reports whether argv's first element is a config file
// path rather than a flag, per spec.md §6: "If the first positional
// argument is not a flag, it is a config path."
func configPathArgument(argv []string) (string, bool) {
	if len(argv) == 0 {
		return "", false
	}
	first := argv[0]
	if len(first) > 0 && first[0] == '-' {
		return "", false
	}
	return first, true
}

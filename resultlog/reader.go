package resultlog

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ReadFile returns the file content as a string. Content that is not valid
// UTF-8 is decoded as Latin-1.
func ReadFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if utf8.Valid(content) {
		return string(content), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("decode %s as latin-1: %w", path, err)
	}
	return string(decoded), nil
}

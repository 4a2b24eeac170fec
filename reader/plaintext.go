package reader

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// plainTextExtractor reads .txt and .md files. Content that is not valid
// UTF-8 is decoded as Latin-1, then Windows-1252, both of which accept any
// byte sequence.
type plainTextExtractor struct{}

func (plainTextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, err := cm.NewDecoder().Bytes(data)
		if err == nil {
			return string(decoded), nil
		}
	}

	return "", fmt.Errorf("undecodable text encoding in %s", path)
}

package extract

import (
	"fmt"
	"unicode/utf8"
)

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid utf-8 text")
	}
	return string(data), nil
}

func init() {
	Register(".txt", extractPlain)
	Register(".log", extractPlain)
	Register(".csv", extractPlain)
}

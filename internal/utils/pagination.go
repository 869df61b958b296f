// Package utils holds small helpers shared by the HTTP layer.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// malformed. Surrounding spaces are tolerated.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParsePage turns raw page and page_size values into a 1-based page and a
// size in [1, maxSize]. Missing or malformed values use page 1 and defSize.
func ParsePage(pageRaw, sizeRaw string, defSize, maxSize int) (page, size int) {
	page = max(AtoiDefault(pageRaw, 1), 1)
	size = min(max(AtoiDefault(sizeRaw, defSize), 1), maxSize)
	return page, size
}

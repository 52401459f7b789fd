// Package embed documents and parses the embedding-file contract (spec §6):
// a line-based UTF-8 format with two ignored header lines, then whitespace-
// separated records "<id> <f1> ... <fD>". IDs starting with "e" are
// hyperedges and may be filtered. The core placement engine does not depend
// on this format — it is kept here only because original_source/parser.py
// fixes exact edge-case behavior (dimension consistency, hyperedge
// filtering) that sa.py itself never restates, per the expanded spec's
// SUPPLEMENTED FEATURES.
package embed

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/zeonica-pnr/internal/block"
)

// Records maps a block ID to its feature vector.
type Records map[block.ID][]float64

// Parse reads an embedding file from r. filterHyperedge, when true, skips
// any record whose ID begins with "e". Every record's feature vector must
// have the same dimension as the first record parsed; a mismatch is a
// programming/data error and returns an error rather than silently
// truncating, since the Python source asserts it outright.
func Parse(r io.Reader, filterHyperedge bool) (dimension int, records Records, err error) {
	scanner := bufio.NewScanner(r)

	// Two header lines are ignored unconditionally.
	for i := 0; i < 2; i++ {
		if !scanner.Scan() {
			return 0, nil, fmt.Errorf("embed: file has fewer than 2 header lines")
		}
	}

	records = Records{}
	lineNo := 2
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		id := block.ID(fields[0])
		values := fields[1:]

		if dimension == 0 {
			dimension = len(values)
		} else if len(values) != dimension {
			return 0, nil, fmt.Errorf(
				"embed: line %d: expected %d dimensions, got %d", lineNo, dimension, len(values))
		}

		if filterHyperedge && block.Is(id, block.Hyperedge) {
			continue
		}

		vec := make([]float64, len(values))
		for i, v := range values {
			f, convErr := strconv.ParseFloat(v, 64)
			if convErr != nil {
				return 0, nil, fmt.Errorf("embed: line %d: field %d: %w", lineNo, i+1, convErr)
			}
			vec[i] = f
		}
		records[id] = vec
	}

	if err := scanner.Err(); err != nil {
		return 0, nil, fmt.Errorf("embed: scanning: %w", err)
	}

	return dimension, records, nil
}

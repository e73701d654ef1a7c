package scale

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxWeight is the exclusive upper bound of an accepted sample, in kg.
const MaxWeight = 200000

var weightPattern = regexp.MustCompile(`[-+]?[0-9]+(?:[\.,][0-9]+)?`)

// ParseWeight extracts the first decimal number of an indicator line such as
// "ST,GS,+0039170kg" and checks it against [0, MaxWeight).
func ParseWeight(line string) (float64, error) {
	clean := strings.TrimSpace(line)
	if clean == "" {
		return 0, ErrNoWeightInLine
	}

	match := weightPattern.FindString(clean)
	if match == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoWeightInLine, clean)
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoWeightInLine, err)
	}

	if !InRange(value) {
		return value, fmt.Errorf("%w: %v", ErrSampleOutOfRange, value)
	}

	return value, nil
}

func InRange(value float64) bool {
	return value >= 0 && value < MaxWeight
}

// scanLines splits on CR, LF or CRLF and drops empty lines; indicators differ
// in which terminator they send.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	start := 0
	for start < len(data) && (data[start] == '\r' || data[start] == '\n') {
		start++
	}

	if i := bytes.IndexAny(data[start:], "\r\n"); i >= 0 {
		return start + i + 1, data[start : start+i], nil
	}

	if atEOF {
		if start < len(data) {
			return len(data), data[start:], nil
		}
		return len(data), nil, nil
	}

	return start, nil, nil
}

var _ bufio.SplitFunc = scanLines

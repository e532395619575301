package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// a1Range is the anchor of a configured range such as "Tasks!B2:H".
type a1Range struct {
	sheet    string
	startCol int // zero-based
	startRow int // one-based
}

func parseA1Range(raw string) (a1Range, error) {
	sheet, cells, ok := strings.Cut(raw, "!")
	if !ok {
		cells = sheet
		sheet = ""
	}
	sheet = strings.Trim(sheet, "'")

	start, _, _ := strings.Cut(cells, ":")
	if start == "" {
		return a1Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, raw)
	}

	i := 0
	for i < len(start) && isLetter(start[i]) {
		i++
	}
	if i == 0 {
		return a1Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, raw)
	}

	col := columnIndex(strings.ToUpper(start[:i]))
	row := 1
	if i < len(start) {
		n, err := strconv.Atoi(start[i:])
		if err != nil || n < 1 {
			return a1Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, raw)
		}
		row = n
	}

	return a1Range{sheet: sheet, startCol: col, startRow: row}, nil
}

// cell returns the A1 reference of the cell at a zero-based offset from the anchor.
func (r a1Range) cell(rowOffset, colOffset int) string {
	ref := columnLetter(r.startCol+colOffset) + strconv.Itoa(r.startRow+rowOffset)
	if r.sheet == "" {
		return ref
	}
	return "'" + strings.ReplaceAll(r.sheet, "'", "''") + "'!" + ref
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func columnIndex(letters string) int {
	n := 0
	for i := 0; i < len(letters); i++ {
		n = n*26 + int(letters[i]-'A'+1)
	}
	return n - 1
}

func columnLetter(index int) string {
	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

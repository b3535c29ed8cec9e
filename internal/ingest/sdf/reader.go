package sdf

import (
	"bufio"
	"io"
	"strings"
)

// recordTerminator ends one molecule record in a structure-data file.
const recordTerminator = "$$$$"

// Record is one molecule entry of a structure-data file: a molfile
// block followed by tagged data fields.
type Record struct {
	// Name is the first line of the molfile block. May be empty.
	Name string

	// Raw is the full record text, without the terminator line.
	Raw string

	// Properties holds the tagged data fields (e.g.
	// PUBCHEM_COMPOUND_CID) keyed by tag name.
	Properties map[string]string
}

// CID returns the compound identifier field, or "" if absent.
func (r Record) CID() string {
	return r.Properties["PUBCHEM_COMPOUND_CID"]
}

// Reader streams records from a structure-data file one at a time, in
// constant memory relative to the file size.
type Reader struct {
	br *bufio.Reader
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next returns the next record. It returns io.EOF after the last
// record. Trailing content without a terminator is returned as a
// final record, matching how partial dumps are written.
func (r *Reader) Next() (Record, error) {
	var lines []string

	for {
		line, err := r.br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		if err != nil && err != io.EOF {
			return Record{}, err
		}

		atEOF := err == io.EOF

		if line == recordTerminator {
			return parseRecord(lines), nil
		}
		if atEOF {
			if line != "" {
				lines = append(lines, line)
			}
			if emptyRecord(lines) {
				return Record{}, io.EOF
			}
			return parseRecord(lines), nil
		}

		lines = append(lines, line)
	}
}

// emptyRecord reports whether lines contain no content.
func emptyRecord(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

// parseRecord extracts the name and tagged data fields. A data field
// looks like:
//
//	> <TAG>
//	value line(s)
//	<blank line>
func parseRecord(lines []string) Record {
	rec := Record{
		Raw:        strings.Join(lines, "\n"),
		Properties: make(map[string]string),
	}
	if len(lines) > 0 {
		rec.Name = strings.TrimSpace(lines[0])
	}

	for i := 0; i < len(lines); i++ {
		tag, ok := parseTag(lines[i])
		if !ok {
			continue
		}

		var values []string
		for i++; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "" {
				break
			}
			values = append(values, lines[i])
		}
		rec.Properties[tag] = strings.Join(values, "\n")
	}
	return rec
}

// parseTag extracts the tag name from a data header line ("> <TAG>").
func parseTag(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ">") {
		return "", false
	}
	start := strings.Index(trimmed, "<")
	end := strings.LastIndex(trimmed, ">")
	if start < 0 || end <= start {
		return "", false
	}
	return trimmed[start+1 : end], true
}

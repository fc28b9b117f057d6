// Package history reads the cached list of commits that Hydra has already
// evaluated, and decides when that cache needs refreshing.
package history

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

// ParseRecord returns the identifier at the start of a history record.
// Only the leading run of hex digits counts; the rest of the line (an eval
// id or a timestamp) is ignored.
func ParseRecord(line []byte) (models.Oid, error) {
	end := 0
	for end < len(line) && isHexDigit(line[end]) {
		end++
	}
	return models.ParseOid(string(line[:end]))
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Read parses every record of a history file into a set. Blank lines are
// skipped. Lines may be of any length.
func Read(r io.Reader) (models.OidSet, error) {
	set := models.OidSet{}
	br := bufio.NewReader(r)

	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		line = bytes.TrimSuffix(line, []byte{'\n'})
		if len(line) > 0 {
			id, perr := ParseRecord(line)
			if perr != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, perr)
			}
			set.Add(id)
		}
		if err == io.EOF {
			return set, nil
		}
	}
}

package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

// ErrEmptyLine is returned for a blank line inside the log.
var ErrEmptyLine = errors.New("empty line")

const maxLineSize = 1024 * 1024

// record is one parsed log line
type record struct {
	id      models.Oid
	parents []models.Oid
}

// Read parses lines of the form "<oid> <parent-oid>..." into a Graph.
// The first line's commit becomes the bad marker. Parents that have no
// line of their own are outside the bisection window and are dropped.
func Read(r io.Reader) (*Graph, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		commits: make(map[models.Oid]*models.Commit, len(records)),
	}
	if len(records) > 0 {
		g.bad = records[0].id
		g.hasBad = true
	}

	// Every first field is a vertex, even if it shows up after being
	// referenced as a parent.
	for _, rec := range records {
		if _, ok := g.commits[rec.id]; !ok {
			g.commits[rec.id] = models.NewCommit(rec.id)
		}
	}

	for _, rec := range records {
		commit := g.commits[rec.id]
		for _, parent := range rec.parents {
			p, ok := g.commits[parent]
			if !ok {
				continue
			}
			commit.Parents.Add(parent)
			p.Children.Add(rec.id)
		}
	}

	return g, nil
}

func readRecords(r io.Reader) ([]record, error) {
	var records []record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		rec, err := parseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading commit graph: %w", err)
	}

	return records, nil
}

// parseLine parses "<oid> <parent>..."; fields are separated by single spaces
func parseLine(line string) (record, error) {
	if line == "" {
		return record{}, ErrEmptyLine
	}

	fields := strings.Split(line, " ")
	id, err := models.ParseOid(fields[0])
	if err != nil {
		return record{}, fmt.Errorf("parsing commit in %q: %w", line, err)
	}

	parents := make([]models.Oid, 0, len(fields)-1)
	for _, field := range fields[1:] {
		parent, err := models.ParseOid(field)
		if err != nil {
			return record{}, fmt.Errorf("parsing parent of %s in %q: %w", id, line, err)
		}
		parents = append(parents, parent)
	}

	return record{id: id, parents: parents}, nil
}

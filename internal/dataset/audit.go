package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// Location is a 1-based line in one split file.
type Location struct {
	File string
	Line int
}

// SoftDuplicate is a term that occurs in more than one row across the
// split files, whatever its label.
type SoftDuplicate struct {
	Term string
	// Files lists the files containing the term in SplitFiles order; Lines
	// holds the 1-based lines per file.
	Files []string
	Lines map[string][]int
}

// HardDuplicate is a (label, term) pair that occurs in more than one row.
type HardDuplicate struct {
	Row
	Locations []Location
}

// Report is the outcome of Audit.
type Report struct {
	Soft []SoftDuplicate
	Hard []HardDuplicate
}

// Audit loads training.csv, validation.csv and test.csv from dir and
// collects soft and hard duplicates. Soft duplicates are listed in order of
// first appearance; hard duplicates are sorted by label then term.
func Audit(dir string) (Report, error) {
	type occurrence struct {
		row Row
		loc Location
	}
	var all []occurrence
	for _, name := range SplitFiles {
		rows, err := ReadRows(filepath.Join(dir, name))
		if err != nil {
			return Report{}, fmt.Errorf("%s: %w", name, err)
		}
		for i, r := range rows {
			all = append(all, occurrence{row: r, loc: Location{File: name, Line: i + 1}})
		}
	}

	termCount := map[string]int{}
	pairs := map[Row][]Location{}
	for _, o := range all {
		termCount[o.row.Term]++
		pairs[o.row] = append(pairs[o.row], o.loc)
	}

	var rep Report
	index := map[string]int{}
	for _, o := range all {
		term := o.row.Term
		if termCount[term] < 2 {
			continue
		}
		i, ok := index[term]
		if !ok {
			i = len(rep.Soft)
			index[term] = i
			rep.Soft = append(rep.Soft, SoftDuplicate{Term: term, Lines: map[string][]int{}})
		}
		d := &rep.Soft[i]
		if _, ok := d.Lines[o.loc.File]; !ok {
			d.Files = append(d.Files, o.loc.File)
		}
		d.Lines[o.loc.File] = append(d.Lines[o.loc.File], o.loc.Line)
	}

	for row, locs := range pairs {
		if len(locs) > 1 {
			rep.Hard = append(rep.Hard, HardDuplicate{Row: row, Locations: locs})
		}
	}
	sort.Slice(rep.Hard, func(i, j int) bool {
		if rep.Hard[i].Label != rep.Hard[j].Label {
			return rep.Hard[i].Label < rep.Hard[j].Label
		}
		return rep.Hard[i].Term < rep.Hard[j].Term
	})
	return rep, nil
}

// WriteTo prints the report in a human-readable layout.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, d := range r.Soft {
		fmt.Fprintf(&b, "Duplicate search term found: %s\n", d.Term)
		for _, f := range d.Files {
			fmt.Fprintf(&b, "\t\t|_Found in %s on lines: %v\n", f, d.Lines[f])
		}
	}
	if len(r.Hard) == 0 {
		b.WriteString("No hard duplicates found across files.\n")
	}
	for _, d := range r.Hard {
		fmt.Fprintf(&b, "Duplicate found for tag: %s, Search Term: %q\n", d.Label, d.Term)
		for _, l := range d.Locations {
			fmt.Fprintf(&b, "  Found in %s, Line: %d\n", l.File, l.Line)
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

package dataset

// Mismatch describes a stored FEN that disagrees with its canonical start
// position.
type Mismatch struct {
	ID        int
	Stored    string
	Canonical string // empty when the id has no start position
}

// Verify compares every stored FEN with the canonical FEN of its id.
func Verify(d *Dataset) []Mismatch {
	var out []Mismatch
	for _, p := range d.Positions {
		canonical, err := StartFEN(p.ID)
		if err != nil {
			out = append(out, Mismatch{ID: p.ID, Stored: p.FEN})
			continue
		}
		if p.FEN != canonical {
			out = append(out, Mismatch{ID: p.ID, Stored: p.FEN, Canonical: canonical})
		}
	}
	return out
}

// Fix rewrites mismatching FENs to their canonical form and returns the
// mismatches it repaired. Positions with out-of-range ids are left alone.
func Fix(d *Dataset) []Mismatch {
	var fixed []Mismatch
	for _, m := range Verify(d) {
		if m.Canonical == "" {
			continue
		}
		p, _ := d.Lookup(m.ID)
		p.FEN = m.Canonical
		fixed = append(fixed, m)
	}
	return fixed
}

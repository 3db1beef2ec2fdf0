package uci

// Accumulator folds the progress events of one search into the deepest event
// per multi-PV slot. It is owned by a single in-flight request.
type Accumulator struct {
	multiPV  int
	slots    map[int]Info
	maxDepth int
}

// Result is the outcome of a completed search.
type Result struct {
	// Lines holds the retained event per slot, slot 1 (best line) first.
	// Slots the engine never reported are absent.
	Lines []Info

	// Depth is the deepest depth reported for any retained slot.
	Depth int

	BestMove BestMove
}

// NewAccumulator creates an accumulator keeping at most multiPV slots.
// Values below 1 are treated as 1.
func NewAccumulator(multiPV int) *Accumulator {
	if multiPV < 1 {
		multiPV = 1
	}
	return &Accumulator{
		multiPV: multiPV,
		slots:   make(map[int]Info, multiPV),
	}
}

// Add records an event and reports whether it was retained.
// An event replaces the stored one for its slot when its depth is at least
// the stored depth. Events for slots beyond the configured count are dropped.
func (a *Accumulator) Add(info Info) bool {
	if info.MultiPV < 1 || info.MultiPV > a.multiPV {
		return false
	}
	if cur, ok := a.slots[info.MultiPV]; ok && info.Depth < cur.Depth {
		return false
	}
	a.slots[info.MultiPV] = info
	if info.Depth > a.maxDepth {
		a.maxDepth = info.Depth
	}
	return true
}

// Len returns the number of populated slots.
func (a *Accumulator) Len() int {
	return len(a.slots)
}

// Reset clears all retained events.
func (a *Accumulator) Reset() {
	a.slots = make(map[int]Info, a.multiPV)
	a.maxDepth = 0
}

// Result returns the retained lines ordered by slot together with bm.
func (a *Accumulator) Result(bm BestMove) *Result {
	res := &Result{
		Lines:    make([]Info, 0, len(a.slots)),
		Depth:    a.maxDepth,
		BestMove: bm,
	}
	for slot := 1; slot <= a.multiPV; slot++ {
		if info, ok := a.slots[slot]; ok {
			res.Lines = append(res.Lines, info)
		}
	}
	return res
}

// Best returns the slot 1 line, if any.
func (r *Result) Best() (Info, bool) {
	if len(r.Lines) == 0 || r.Lines[0].MultiPV != 1 {
		return Info{}, false
	}
	return r.Lines[0], true
}

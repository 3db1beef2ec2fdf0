// Package uci parses the subset of the UCI protocol emitted by analysis
// engines and builds the commands sent to them.
//
// Progress lines follow this grammar (whitespace separated, field order free
// except that pv consumes the rest of the line):
//
//	info-line := "info" { field }
//	field     := "depth" INT                          required
//	           | "multipv" INT                        optional, default 1
//	           | "score" ("cp"|"mate") INT [bound]    required
//	           | "wdl" INT INT INT                    optional
//	           | "pv" MOVE { MOVE }                   required, last
//	           | NAME VALUE                           ignored (nodes, nps, ...)
//
// Lines that do not match are reported as Unknown and never as errors: engines
// interleave banners, "info string" diagnostics and currmove updates with data.
package uci

import (
	"strconv"
	"strings"
)

// Kind identifies the type of a parsed engine line.
type Kind int

const (
	Unknown Kind = iota
	UCIOK
	ReadyOK
	InfoLine
	BestMoveLine
)

// String returns the protocol token for the kind.
func (k Kind) String() string {
	switch k {
	case UCIOK:
		return "uciok"
	case ReadyOK:
		return "readyok"
	case InfoLine:
		return "info"
	case BestMoveLine:
		return "bestmove"
	default:
		return "unknown"
	}
}

// Message is the structured form of one engine output line.
// Info is set for InfoLine, BestMove for BestMoveLine.
type Message struct {
	Kind     Kind
	Info     *Info
	BestMove *BestMove
}

// Info is one search progress event.
type Info struct {
	Depth   int
	MultiPV int
	Score   Score
	PV      []string
	WDL     *WDL
}

// WDL is a win/draw/loss triple on the engine's scale (per-mille for Stockfish),
// from the side to move's perspective.
type WDL struct {
	W int `json:"w"`
	D int `json:"d"`
	L int `json:"l"`
}

// Total returns w+d+l.
func (w WDL) Total() int {
	return w.W + w.D + w.L
}

// BestMove is the completion signal of a search.
// Move is empty when the engine reports "bestmove (none)".
type BestMove struct {
	Move   string
	Ponder string
}

// ParseLine parses a single line of engine output.
func ParseLine(line string) Message {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{Kind: Unknown}
	}

	switch fields[0] {
	case "uciok":
		return Message{Kind: UCIOK}
	case "readyok":
		return Message{Kind: ReadyOK}
	case "bestmove":
		return parseBestMove(fields)
	case "info":
		info, ok := parseInfo(fields[1:])
		if !ok {
			return Message{Kind: Unknown}
		}
		return Message{Kind: InfoLine, Info: info}
	}
	return Message{Kind: Unknown}
}

func parseBestMove(fields []string) Message {
	bm := &BestMove{}
	if len(fields) > 1 && fields[1] != "(none)" {
		bm.Move = fields[1]
	}
	if len(fields) > 3 && fields[2] == "ponder" {
		bm.Ponder = fields[3]
	}
	return Message{Kind: BestMoveLine, BestMove: bm}
}

// parseInfo extracts the fields of an info line. It reports false when depth,
// score or pv are missing or malformed.
func parseInfo(fields []string) (*Info, bool) {
	info := &Info{MultiPV: 1}
	var hasDepth, hasScore bool

	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			v, ok := intAt(fields, i+1)
			if !ok {
				return nil, false
			}
			info.Depth = v
			hasDepth = true
			i++
		case "multipv":
			v, ok := intAt(fields, i+1)
			if !ok || v < 1 {
				return nil, false
			}
			info.MultiPV = v
			i++
		case "score":
			if i+2 >= len(fields) {
				return nil, false
			}
			v, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return nil, false
			}
			switch fields[i+1] {
			case "cp":
				info.Score = Score{Value: v}
			case "mate":
				info.Score = Score{Mate: true, Value: v}
			default:
				return nil, false
			}
			hasScore = true
			i += 2
			if i+1 < len(fields) && (fields[i+1] == "lowerbound" || fields[i+1] == "upperbound") {
				i++
			}
		case "wdl":
			w, ok1 := intAt(fields, i+1)
			d, ok2 := intAt(fields, i+2)
			l, ok3 := intAt(fields, i+3)
			if !ok1 || !ok2 || !ok3 {
				return nil, false
			}
			info.WDL = &WDL{W: w, D: d, L: l}
			i += 3
		case "pv":
			info.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		case "string":
			// "info string ..." is free text and never carries search data.
			return nil, false
		default:
			// Unrecognised name/value pair such as nodes or nps.
			i++
		}
	}

	if !hasDepth || !hasScore || len(info.PV) == 0 {
		return nil, false
	}
	return info, true
}

func intAt(fields []string, i int) (int, bool) {
	if i >= len(fields) {
		return 0, false
	}
	v, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0, false
	}
	return v, true
}

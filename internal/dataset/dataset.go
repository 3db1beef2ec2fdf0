// Package dataset reads and writes the list of Chess960 start positions.
//
// The file is a JSON document {"positions": [{"id": 0, "fen": "..."}, ...]}.
// Fields other than id and fen, on positions and at the top level, belong to
// other tools and are carried through unchanged.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// FileName is the conventional object name of the dataset.
const FileName = "chess960.json"

var (
	// ErrMissingField is returned when a position lacks its id or fen.
	ErrMissingField = errors.New("dataset: position is missing id or fen")

	// ErrDuplicateID is returned when two positions share an id.
	ErrDuplicateID = errors.New("dataset: duplicate position id")
)

// Position is one entry of the dataset.
type Position struct {
	ID  int
	FEN string

	// Fields holds every other member of the JSON object, verbatim.
	Fields map[string]json.RawMessage
}

// Set stores v as the named pass-through field.
func (p *Position) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding field %s of position %d: %w", key, p.ID, err)
	}
	if p.Fields == nil {
		p.Fields = make(map[string]json.RawMessage)
	}
	p.Fields[key] = raw
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Position) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	rawID, okID := fields["id"]
	rawFEN, okFEN := fields["fen"]
	if !okID || !okFEN {
		return ErrMissingField
	}
	if err := json.Unmarshal(rawID, &p.ID); err != nil {
		return fmt.Errorf("decoding id: %w", err)
	}
	if err := json.Unmarshal(rawFEN, &p.FEN); err != nil {
		return fmt.Errorf("decoding fen of position %d: %w", p.ID, err)
	}

	delete(fields, "id")
	delete(fields, "fen")
	p.Fields = nil
	if len(fields) > 0 {
		p.Fields = fields
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Position) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+2)
	for k, v := range p.Fields {
		out[k] = v
	}
	out["id"] = p.ID
	out["fen"] = p.FEN
	return json.Marshal(out)
}

// Dataset is the decoded positions document.
type Dataset struct {
	Positions []Position

	// Fields holds the top-level members other than positions.
	Fields map[string]json.RawMessage
}

// Parse decodes a dataset document. Positions are returned sorted by id.
func Parse(data []byte) (*Dataset, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}

	d := &Dataset{}
	if raw, ok := fields["positions"]; ok {
		if err := json.Unmarshal(raw, &d.Positions); err != nil {
			return nil, fmt.Errorf("decoding positions: %w", err)
		}
		delete(fields, "positions")
	}
	if len(fields) > 0 {
		d.Fields = fields
	}

	sort.SliceStable(d.Positions, func(i, j int) bool {
		return d.Positions[i].ID < d.Positions[j].ID
	})
	for i := 1; i < len(d.Positions); i++ {
		if d.Positions[i].ID == d.Positions[i-1].ID {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, d.Positions[i].ID)
		}
	}
	return d, nil
}

// Encode renders the dataset as indented JSON.
func (d *Dataset) Encode() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		out[k] = v
	}
	positions := d.Positions
	if positions == nil {
		positions = []Position{}
	}
	out["positions"] = positions

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding dataset: %w", err)
	}
	return append(data, '\n'), nil
}

// Lookup returns the position with the given id.
func (d *Dataset) Lookup(id int) (*Position, bool) {
	i := sort.Search(len(d.Positions), func(i int) bool {
		return d.Positions[i].ID >= id
	})
	if i < len(d.Positions) && d.Positions[i].ID == id {
		return &d.Positions[i], true
	}
	return nil, false
}

// Clone returns a deep copy that can be modified without affecting d.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		Positions: make([]Position, len(d.Positions)),
		Fields:    cloneFields(d.Fields),
	}
	for i, p := range d.Positions {
		c.Positions[i] = Position{ID: p.ID, FEN: p.FEN, Fields: cloneFields(p.Fields)}
	}
	return c
}

func cloneFields(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	c := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		c[k] = append(json.RawMessage(nil), v...)
	}
	return c
}

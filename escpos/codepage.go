package escpos

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// codePage pairs a character map with its ESC t table number.
type codePage struct {
	charmap *charmap.Charmap
	table   byte
}

var codePages = map[string]codePage{
	"cp437":  {charmap.CodePage437, 0},
	"cp850":  {charmap.CodePage850, 2},
	"cp860":  {charmap.CodePage860, 3},
	"cp863":  {charmap.CodePage863, 4},
	"cp865":  {charmap.CodePage865, 5},
	"cp1252": {charmap.Windows1252, 16},
	"cp866":  {charmap.CodePage866, 17},
	"cp852":  {charmap.CodePage852, 18},
	"cp858":  {charmap.CodePage858, 19},
}

// CodePages lists the supported code page names.
func CodePages() []string {
	names := make([]string, 0, len(codePages))
	for name := range codePages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// textEncoder converts UTF-8 text to the printer's character table.
// A nil *textEncoder passes text through unchanged.
type textEncoder struct {
	enc   *encoding.Encoder
	table byte
}

func newTextEncoder(name string) (*textEncoder, error) {
	if name == "" {
		return nil, nil
	}
	cp, ok := codePages[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown code page %q", name)
	}
	return &textEncoder{
		enc:   encoding.ReplaceUnsupported(cp.charmap.NewEncoder()),
		table: cp.table,
	}, nil
}

// selectTable returns the ESC t command, or nil for passthrough.
func (e *textEncoder) selectTable() []byte {
	if e == nil {
		return nil
	}
	return cmdCodeTable(e.table)
}

func (e *textEncoder) encode(s string) ([]byte, error) {
	if e == nil {
		return []byte(s), nil
	}
	out, err := e.enc.String(s)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

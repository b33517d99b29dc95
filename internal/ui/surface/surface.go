// Package surface is a cell grid that themed text is drawn onto before it is turned into a
// styled string. Pads grow to fit what is drawn on them; screens have a fixed size and clip.
package surface

import (
	"errors"
	"strings"

	"github.com/go-logr/logr"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

// Cell is one terminal cell.
type Cell struct {
	Rune     rune
	Attr     themes.ThemeAttr
	Selected bool
	// cont marks the right half of a double-width rune.
	cont bool
}

var (
	nulRef        = themes.ThemeRef{Context: "separators", Key: "nul"}
	errNoResolver = errors.New("surface has no reference resolver")
)

func blank() Cell { return Cell{Rune: ' ', Attr: themes.DefaultAttr} }

// Surface is a rectangular grid with a cursor.
type Surface struct {
	cells    [][]Cell
	rows     int
	cols     int
	growable bool
	cy, cx   int
	refs     themes.RefResolver
	log      logr.Logger
}

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets the logger used for absorbed drawing errors.
func WithLogger(log logr.Logger) Option {
	return func(s *Surface) { s.log = log }
}

// NewScreen returns a fixed-size surface; writes outside it are dropped.
func NewScreen(rows, cols int, refs themes.RefResolver, opts ...Option) *Surface {
	return newSurface(rows, cols, false, refs, opts)
}

// NewPad returns a surface that grows to fit whatever is drawn on it.
func NewPad(rows, cols int, refs themes.RefResolver, opts ...Option) *Surface {
	return newSurface(rows, cols, true, refs, opts)
}

func newSurface(rows, cols int, growable bool, refs themes.RefResolver, opts []Option) *Surface {
	s := &Surface{growable: growable, refs: refs, log: logr.Discard()}
	for _, o := range opts {
		o(s)
	}
	s.Resize(rows, cols)
	return s
}

// Size returns the current dimensions.
func (s *Surface) Size() (rows, cols int) { return s.rows, s.cols }

// Growable reports whether the surface is a pad.
func (s *Surface) Growable() bool { return s.growable }

// Cursor returns the position following the last write.
func (s *Surface) Cursor() (row, col int) { return s.cy, s.cx }

// Move sets the cursor.
func (s *Surface) Move(row, col int) { s.cy, s.cx = row, col }

// Resize sets the dimensions, keeping existing content where it fits. It is the only way a
// surface shrinks.
func (s *Surface) Resize(rows, cols int) {
	rows, cols = max(rows, 0), max(cols, 0)
	cells := make([][]Cell, rows)
	for y := range cells {
		cells[y] = make([]Cell, cols)
		for x := range cells[y] {
			if y < s.rows && x < s.cols {
				cells[y][x] = s.cells[y][x]
			} else {
				cells[y][x] = blank()
			}
		}
	}
	s.cells, s.rows, s.cols = cells, rows, cols
	if s.cy >= rows || s.cx >= cols {
		s.cy, s.cx = 0, 0
	}
}

// Clear blanks every cell and homes the cursor.
func (s *Surface) Clear() {
	for y := range s.cells {
		for x := range s.cells[y] {
			s.cells[y][x] = blank()
		}
	}
	s.cy, s.cx = 0, 0
}

// grow enlarges the grid so that (row, col) fits. Dimensions never shrink here.
func (s *Surface) grow(row, col int) {
	rows, cols := max(s.rows, row+1), max(s.cols, col+1)
	if rows == s.rows && cols == s.cols {
		return
	}
	if cols > s.cols {
		for y := range s.cells {
			for x := s.cols; x < cols; x++ {
				s.cells[y] = append(s.cells[y], blank())
			}
		}
	}
	for y := s.rows; y < rows; y++ {
		line := make([]Cell, cols)
		for x := range line {
			line[x] = blank()
		}
		s.cells = append(s.cells, line)
	}
	s.rows, s.cols = rows, cols
}

func (s *Surface) set(row, col int, c Cell) bool {
	if row < 0 || col < 0 {
		return false
	}
	if row >= s.rows || col >= s.cols {
		if !s.growable {
			return false
		}
		s.grow(row, col)
	}
	s.cells[row][col] = c
	return true
}

// Put draws literal fragments starting at (row, col) and leaves the cursor after them.
func (s *Surface) Put(row, col int, frags ...themes.ThemeString) {
	s.cy, s.cx = row, col
	for _, f := range frags {
		s.putText(f.Text, f.Attr, f.Selected)
	}
}

// PutArray resolves references in a and draws the result at (row, col). Unresolvable
// references are skipped.
func (s *Surface) PutArray(row, col int, a themes.ThemeArray) {
	s.Move(row, col)
	s.Write(a)
}

// Write draws a at the cursor.
func (s *Surface) Write(a themes.ThemeArray) {
	for _, f := range a {
		switch v := f.(type) {
		case themes.ThemeString:
			s.putText(v.Text, v.Attr, v.Selected)
		case themes.ThemeRef:
			frags, err := s.resolveRef(v)
			if err != nil {
				s.log.V(1).Info("skipping unresolvable reference", "ref", v.String(), "error", err.Error())
				continue
			}
			for _, fr := range frags {
				s.putText(fr.Text, fr.Attr, v.Selected || fr.Selected)
			}
		}
	}
}

func (s *Surface) resolveRef(ref themes.ThemeRef) ([]themes.ThemeString, error) {
	if s.refs == nil {
		return nil, errNoResolver
	}
	return s.refs.Fragments(ref)
}

// putText writes runes at the cursor. NULs are drawn as the <NUL> marker.
func (s *Surface) putText(text string, attr themes.ThemeAttr, selected bool) {
	for {
		i := strings.IndexByte(text, 0)
		if i < 0 {
			s.putRunes(text, attr, selected)
			return
		}
		s.putRunes(text[:i], attr, selected)
		s.putNUL(attr, selected)
		text = text[i+1:]
	}
}

func (s *Surface) putNUL(attr themes.ThemeAttr, selected bool) {
	if frags, err := s.resolveRef(nulRef); err == nil {
		for _, f := range frags {
			s.putRunes(f.Text, f.Attr, selected)
		}
		return
	}
	s.putRunes("<NUL>", attr, selected)
}

func (s *Surface) putRunes(text string, attr themes.ThemeAttr, selected bool) {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if !s.growable && s.cx+w > s.cols {
			// a wide rune that does not fit is dropped along with the rest of the row
			s.cx += w
			continue
		}
		s.set(s.cy, s.cx, Cell{Rune: r, Attr: attr, Selected: selected})
		if w == 2 {
			s.set(s.cy, s.cx+1, Cell{Attr: attr, Selected: selected, cont: true})
		}
		s.cx += w
	}
}

// Fill paints a rectangle with spaces in attr.
func (s *Surface) Fill(row, col, h, w int, attr themes.ThemeAttr, selected bool) {
	for y := row; y < row+h; y++ {
		for x := col; x < col+w; x++ {
			s.set(y, x, Cell{Rune: ' ', Attr: attr, Selected: selected})
		}
	}
}

// Cell returns the cell at (row, col), or a blank cell outside the grid.
func (s *Surface) Cell(row, col int) Cell {
	if row < 0 || col < 0 || row >= s.rows || col >= s.cols {
		return blank()
	}
	return s.cells[row][col]
}

// Blit copies an h×w window of s starting at (srcRow, srcCol) onto dst at (dstRow, dstCol).
// Wide runes cut by the window edges become spaces.
func (s *Surface) Blit(dst *Surface, srcRow, srcCol, dstRow, dstCol, h, w int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := s.Cell(srcRow+y, srcCol+x)
			switch {
			case c.cont && x == 0:
				c = Cell{Rune: ' ', Attr: c.Attr, Selected: c.Selected}
			case !c.cont && x == w-1 && runewidth.RuneWidth(c.Rune) == 2:
				c = Cell{Rune: ' ', Attr: c.Attr, Selected: c.Selected}
			}
			dst.set(dstRow+y, dstCol+x, c)
		}
	}
}

// Lines returns the plain text of every row.
func (s *Surface) Lines() []string {
	out := make([]string, s.rows)
	for y, row := range s.cells {
		var b strings.Builder
		for _, c := range row {
			if !c.cont {
				b.WriteRune(c.Rune)
			}
		}
		out[y] = b.String()
	}
	return out
}

// String is the plain text with trailing spaces trimmed, for tests and logs.
func (s *Surface) String() string {
	lines := s.Lines()
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

// Render produces the styled rows, one run of identically styled cells at a time.
func (s *Surface) Render(r *themes.Resolver) string {
	var out strings.Builder
	for y, row := range s.cells {
		if y > 0 {
			out.WriteByte('\n')
		}
		start := 0
		for start < len(row) {
			end := start + 1
			for end < len(row) && row[end].Attr == row[start].Attr && row[end].Selected == row[start].Selected {
				end++
			}
			var run strings.Builder
			for _, c := range row[start:end] {
				if !c.cont {
					run.WriteRune(c.Rune)
				}
			}
			out.WriteString(r.StyleFor(row[start].Attr, row[start].Selected).Render(run.String()))
			start = end
		}
	}
	return out.String()
}

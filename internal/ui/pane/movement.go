package pane

func (p *Pane) selectable(i int) bool {
	return i >= 0 && i < len(p.rows) && p.rows[i].Attrs.Selectable()
}

type position struct{ cury, yoffset int }

func (p *Pane) save() position      { return position{p.CurY, p.YOffset} }
func (p *Pane) restore(s position) { p.CurY, p.YOffset = s.cury, s.yoffset }

// step moves one row. The cursor moves inside the window and the window scrolls once the
// cursor is at its edge. It reports false at either end of the content.
func (p *Pane) step(dir int) bool {
	switch {
	case dir > 0 && p.Index()+1 >= len(p.rows):
		return false
	case dir < 0 && p.Index() == 0:
		return false
	case dir > 0 && p.CurY < p.MaxCurY:
		p.CurY++
	case dir > 0:
		p.YOffset++
	case p.CurY > 0:
		p.CurY--
	default:
		p.YOffset--
	}
	return true
}

// shift moves n rows, scrolling first and moving the cursor only by what the offset
// could not absorb.
func (p *Pane) shift(n int) {
	p.YOffset += n
	if p.YOffset > p.MaxYOffset {
		p.CurY += p.YOffset - p.MaxYOffset
		p.YOffset = p.MaxYOffset
	}
	if p.YOffset < 0 {
		p.CurY += p.YOffset
		p.YOffset = 0
	}
	p.CurY = min(max(p.CurY, 0), p.MaxCurY)
}

// walk steps in dir until the cursor is on a selectable row. If it runs off the end the
// position is restored and walk reports false.
func (p *Pane) walk(dir int) bool {
	saved := p.save()
	for !p.selectable(p.Index()) {
		if !p.step(dir) {
			p.restore(saved)
			return false
		}
	}
	return true
}

// settle finishes a movement in direction dir, rejecting it when no selectable row remains.
func (p *Pane) settle(saved position, dir int) bool {
	if len(p.rows) == 0 {
		p.restore(saved)
		return false
	}
	if !p.walk(dir) {
		p.restore(saved)
		return false
	}
	moved := p.save() != saved
	p.remember()
	return moved
}

// MoveDown moves the cursor one selectable row down.
func (p *Pane) MoveDown() bool {
	saved := p.save()
	if !p.step(1) {
		return false
	}
	return p.settle(saved, 1)
}

// MoveUp moves the cursor one selectable row up.
func (p *Pane) MoveUp() bool {
	saved := p.save()
	if !p.step(-1) {
		return false
	}
	return p.settle(saved, -1)
}

// PageDown moves PageSize rows down.
func (p *Pane) PageDown() bool { return p.Scroll(PageSize) }

// PageUp moves PageSize rows up.
func (p *Pane) PageUp() bool { return p.Scroll(-PageSize) }

// Scroll moves n rows with the offset taking the movement before the cursor does.
func (p *Pane) Scroll(n int) bool {
	if n == 0 {
		return false
	}
	saved := p.save()
	p.shift(n)
	dir := 1
	if n < 0 {
		dir = -1
	}
	return p.settle(saved, dir)
}

// Home moves to the first selectable row.
func (p *Pane) Home() bool {
	saved := p.save()
	p.CurY, p.YOffset = 0, 0
	return p.settle(saved, 1)
}

// End moves to the last selectable row.
func (p *Pane) End() bool {
	saved := p.save()
	p.CurY, p.YOffset = p.MaxCurY, p.MaxYOffset
	return p.settle(saved, -1)
}

// MoveTo puts the cursor on row i, scrolling as little as possible to keep it visible.
func (p *Pane) MoveTo(i int) bool {
	if !p.selectable(i) {
		return false
	}
	switch {
	case i < p.YOffset:
		p.YOffset = i
	case i > p.YOffset+p.MaxCurY:
		p.YOffset = i - p.MaxCurY
	}
	p.YOffset = min(max(p.YOffset, 0), p.MaxYOffset)
	p.CurY = i - p.YOffset
	p.remember()
	return true
}

// ScrollRight moves the horizontal offset n columns right.
func (p *Pane) ScrollRight(n int) {
	p.XOffset = min(p.XOffset+n, p.MaxXOffset)
}

// ScrollLeft moves the horizontal offset n columns left.
func (p *Pane) ScrollLeft(n int) {
	p.XOffset = max(p.XOffset-n, 0)
}

// Scan moves one row at a time in dir until match accepts a selectable row. With wrap it
// continues past the ends and gives up after one full cycle; without wrap it stops at the
// ends. The cursor is unchanged when nothing matches.
func (p *Pane) Scan(dir int, wrap bool, match func(i int, r Row) bool) bool {
	n := len(p.rows)
	if n == 0 {
		return false
	}
	start := p.Index()
	i := start
	for range n {
		i += dir
		if i < 0 || i >= n {
			if !wrap {
				return false
			}
			i = (i + n) % n
		}
		if i == start {
			return false
		}
		if p.selectable(i) && match(i, p.rows[i]) {
			return p.MoveTo(i)
		}
	}
	return false
}

// JumpToLetter moves to the next row whose first column starts with the letter, wrapping
// around. Upper case letters search backwards.
func (p *Pane) JumpToLetter(letter rune) bool {
	dir := 1
	lower := letter
	if letter >= 'A' && letter <= 'Z' {
		dir = -1
		lower = letter - 'A' + 'a'
	}
	return p.Scan(dir, true, func(_ int, r Row) bool {
		v := r.value(0)
		if v == "" {
			return false
		}
		c := rune(v[0])
		if c >= 'A' && c <= 'Z' {
			c = c - 'A' + 'a'
		}
		return c == lower
	})
}

// NextGroup moves to the first row of the next group of rows, groups being separated by
// separator rows.
func (p *Pane) NextGroup(dir int) bool {
	return p.Scan(dir, true, func(i int, _ Row) bool {
		return i == 0 || p.rows[i-1].Attrs.Has(LineSeparator)
	})
}

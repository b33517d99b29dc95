package pane

import "strings"

// Search collects the rows matching query, case-insensitively. Log and info panes search the
// text of the whole row; list panes search the value of the sort column. The query is kept
// and applied again whenever the content or the sort order changes. An empty query leaves
// the previous results in place.
func (p *Pane) Search(query string) int {
	if query == "" {
		return len(p.matches)
	}
	p.query = query
	p.lastMatch = -1
	p.collect()
	return len(p.matches)
}

// ClearSearch forgets the query and its matches.
func (p *Pane) ClearSearch() {
	p.query = ""
	p.matches, p.lastMatch = nil, -1
}

// Query is the search in effect, if any.
func (p *Pane) Query() string { return p.query }

func (p *Pane) collect() {
	p.matches = p.matches[:0]
	q := strings.ToLower(p.query)
	for i, r := range p.rows {
		var hay string
		if p.Kind == KindList {
			hay = r.value(p.SortColumn)
		} else {
			hay = r.text()
		}
		if strings.Contains(strings.ToLower(hay), q) {
			p.matches = append(p.matches, i)
		}
	}
}

// lastMatchRow is the row FindNext or FindPrev last landed on, by index and identity.
func (p *Pane) lastMatchRow() (index int, id string) {
	if p.lastMatch < 0 || p.lastMatch >= len(p.matches) {
		return -1, ""
	}
	i := p.matches[p.lastMatch]
	if i >= len(p.rows) {
		return -1, ""
	}
	return i, p.rows[i].ID
}

// rematch runs the kept query over new content. Cycling carries on from the row with
// identity id when it still matches, or from row index when rows have no identity.
func (p *Pane) rematch(index int, id string) {
	p.lastMatch = -1
	if p.query == "" {
		p.matches = nil
		return
	}
	p.collect()
	for k, i := range p.matches {
		if (id != "" && p.rows[i].ID == id) || (id == "" && i == index) {
			p.lastMatch = k
			return
		}
	}
}

// Matches returns the indices found by the last search.
func (p *Pane) Matches() []int { return p.matches }

// FindNext moves to the match after the last one visited, cycling through the matches
// independently of cursor movement in between.
func (p *Pane) FindNext() bool {
	if len(p.matches) == 0 {
		return false
	}
	p.lastMatch = (p.lastMatch + 1) % len(p.matches)
	return p.showMatch()
}

// FindPrev moves to the match before the last one visited.
func (p *Pane) FindPrev() bool {
	if len(p.matches) == 0 {
		return false
	}
	if p.lastMatch < 0 {
		p.lastMatch = len(p.matches) - 1
	} else {
		p.lastMatch = (p.lastMatch - 1 + len(p.matches)) % len(p.matches)
	}
	return p.showMatch()
}

func (p *Pane) showMatch() bool {
	i := p.matches[p.lastMatch]
	if p.MoveTo(i) {
		return true
	}
	// unselectable matches (log lines in a separator, say) are scrolled into view instead
	switch {
	case i < p.YOffset:
		p.YOffset = i
	case i > p.YOffset+p.MaxCurY:
		p.YOffset = min(i-p.MaxCurY, p.MaxYOffset)
	}
	return true
}

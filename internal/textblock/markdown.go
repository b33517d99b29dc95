package textblock

import (
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

type mdList struct {
	ordered bool
	n       int
}

// mdWriter turns the markdown AST into themed rows.
type mdWriter struct {
	lines   []themes.ThemeArray
	cur     lineBuilder
	dirty   bool
	styles  []string
	prefix  []string
	lists   []mdList
	marker  string
	inCells bool
}

func (w *mdWriter) key() string {
	if len(w.styles) == 0 {
		return "generic"
	}
	return w.styles[len(w.styles)-1]
}

func (w *mdWriter) push(key string) { w.styles = append(w.styles, key) }

func (w *mdWriter) pop() {
	if len(w.styles) > 0 {
		w.styles = w.styles[:len(w.styles)-1]
	}
}

func (w *mdWriter) startLine() {
	if w.dirty {
		return
	}
	w.dirty = true
	for i, p := range w.prefix {
		if w.marker != "" && i == len(w.prefix)-1 {
			w.cur.add(w.marker, "md_list")
			w.marker = ""
			continue
		}
		if strings.HasPrefix(p, ">") {
			w.cur.add(p, "md_quote")
		} else {
			w.cur.add(p, "generic")
		}
	}
}

func (w *mdWriter) text(s, key string) {
	for i, seg := range strings.Split(s, "\n") {
		if i > 0 {
			w.flush()
		}
		if seg == "" {
			continue
		}
		w.startLine()
		w.cur.add(seg, key)
	}
}

func (w *mdWriter) flush() {
	if !w.dirty {
		return
	}
	w.lines = append(w.lines, w.cur.line())
	w.cur = lineBuilder{}
	w.dirty = false
}

// blank separates blocks with one empty row.
func (w *mdWriter) blank() {
	w.flush()
	if n := len(w.lines); n > 0 && len(w.lines[n-1]) > 0 && len(w.lists) == 0 {
		w.lines = append(w.lines, themes.ThemeArray{})
	}
}

func (w *mdWriter) visit(node ast.Node, entering bool) ast.WalkStatus {
	switch n := node.(type) {
	case *ast.Heading:
		if entering {
			w.blank()
			w.push("md_heading")
			w.text(strings.Repeat("#", n.Level)+" ", "md_heading")
		} else {
			w.pop()
			w.flush()
		}
	case *ast.Paragraph:
		if entering {
			if _, inItem := n.Parent.(*ast.ListItem); !inItem {
				w.blank()
			}
		} else {
			w.flush()
		}
	case *ast.Text:
		w.text(string(n.Literal), w.key())
	case *ast.Emph:
		w.toggle(entering, "md_emphasis")
	case *ast.Strong:
		w.toggle(entering, "md_strong")
	case *ast.Del:
		w.toggle(entering, "md_quote")
	case *ast.Link:
		w.toggle(entering, "md_link")
		if !entering && len(n.Destination) > 0 {
			w.text(" <"+string(n.Destination)+">", "md_quote")
		}
	case *ast.Code:
		w.text(string(n.Literal), "md_code")
	case *ast.CodeBlock:
		w.blank()
		for _, l := range strings.Split(strings.TrimSuffix(string(n.Literal), "\n"), "\n") {
			w.startLine()
			w.cur.add("    ", "generic")
			w.cur.add(l, "md_code")
			w.flush()
		}
	case *ast.HTMLBlock:
		w.blank()
		w.text(strings.TrimSuffix(string(n.Literal), "\n"), "md_quote")
		w.flush()
	case *ast.HTMLSpan:
		w.text(string(n.Literal), "md_quote")
	case *ast.List:
		if entering {
			if len(w.lists) == 0 {
				w.blank()
			}
			start := n.Start
			if start == 0 {
				start = 1
			}
			w.lists = append(w.lists, mdList{ordered: n.ListFlags&ast.ListTypeOrdered != 0, n: start})
		} else {
			w.flush()
			w.lists = w.lists[:len(w.lists)-1]
		}
	case *ast.ListItem:
		if entering {
			w.flush()
			marker := "- "
			if l := len(w.lists); l > 0 && w.lists[l-1].ordered {
				marker = strconv.Itoa(w.lists[l-1].n) + ". "
				w.lists[l-1].n++
			}
			w.marker = marker
			w.prefix = append(w.prefix, strings.Repeat(" ", len(marker)))
		} else {
			w.flush()
			w.prefix = w.prefix[:len(w.prefix)-1]
			w.marker = ""
		}
	case *ast.BlockQuote:
		if entering {
			w.blank()
			w.prefix = append(w.prefix, "> ")
		} else {
			w.flush()
			w.prefix = w.prefix[:len(w.prefix)-1]
		}
	case *ast.HorizontalRule:
		w.blank()
		w.text(strings.Repeat("─", 40), "md_quote")
		w.flush()
	case *ast.Softbreak, *ast.Hardbreak:
		w.flush()
	case *ast.TableRow:
		if entering {
			w.inCells = false
		} else {
			w.flush()
		}
	case *ast.TableCell:
		if entering {
			if w.inCells {
				w.text(" │ ", "md_quote")
			}
			w.inCells = true
			if n.IsHeader {
				w.push("md_strong")
			} else {
				w.push(w.key())
			}
		} else {
			w.pop()
		}
	}
	return ast.GoToNext
}

func (w *mdWriter) toggle(entering bool, key string) {
	if entering {
		w.push(key)
	} else {
		w.pop()
	}
}

func formatMarkdown(in Input, _ Options) []themes.ThemeArray {
	src := strings.Join(in.Sanitized(), "\n")
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := markdown.Parse([]byte(src), p)

	w := &mdWriter{}
	ast.WalkFunc(doc, w.visit)
	w.flush()
	return w.lines
}

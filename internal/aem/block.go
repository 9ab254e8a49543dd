package aem

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BuildBlock constructs a detached block element from rows of cells:
//
//	<div class="name"><div><div>cell</div>...</div>...</div>
//
// Cells are HTML; empty cells produce empty columns.
func BuildBlock(name string, rows [][]string) (*goquery.Selection, error) {
	block := newElement(atom.Div)
	setAttr(block, "class", name)

	for _, row := range rows {
		rowEl := newElement(atom.Div)
		for _, cell := range row {
			colEl := newElement(atom.Div)
			if cell != "" {
				nodes, err := html.ParseFragment(strings.NewReader(cell), colEl)
				if err != nil {
					return nil, fmt.Errorf("parsing %s cell: %w", name, err)
				}
				for _, n := range nodes {
					colEl.AppendChild(n)
				}
			}
			rowEl.AppendChild(colEl)
		}
		block.AppendChild(rowEl)
	}

	return goquery.NewDocumentFromNode(block).Selection, nil
}

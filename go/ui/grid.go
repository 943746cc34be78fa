package ui

const (
	Rows = 25
	Cols = 80
)

// grid is a text mode page with a teletype cursor.
type grid struct {
	cells    [Rows][Cols]byte
	row, col int
}

func (g *grid) clear() {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = ' '
		}
	}
	g.row, g.col = 0, 0
}

func (g *grid) scroll() {
	copy(g.cells[:], g.cells[1:])
	for c := range g.cells[Rows-1] {
		g.cells[Rows-1][c] = ' '
	}
	g.row = Rows - 1
}

func (g *grid) newline() {
	g.row++
	if g.row >= Rows {
		g.scroll()
	}
}

// put writes ch the way BIOS teletype output does.
func (g *grid) put(ch byte) {
	switch ch {
	case '\r':
		g.col = 0
	case '\n':
		g.newline()
	case '\b':
		if g.col > 0 {
			g.col--
		}
	case 7:
		// bell
	default:
		g.cells[g.row][g.col] = ch
		g.col++
		if g.col >= Cols {
			g.col = 0
			g.newline()
		}
	}
}

func (g *grid) setCursor(row, col int) {
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return
	}
	g.row, g.col = row, col
}

func (g *grid) line(row int) string {
	return string(g.cells[row][:])
}

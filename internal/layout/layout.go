// Package layout computes the dashboard grid. Both renderers place panels with
// the same geometry.
package layout

type Layout struct {
	Width   int
	Height  int
	Columns int
	Rows    int
	Margin  int
	Gap     int
	CellW   int
	CellH   int
}

type Rect struct {
	X, Y, W, H int
}

// Compute lays out itemCount cells on a width x height canvas. Columns below 1
// are treated as 1 and there is always at least one row.
func Compute(width, height, columns, itemCount int) Layout {
	cols := max(1, columns)
	rows := max(1, (max(0, itemCount)+cols-1)/cols)
	margin := max(24, width/80)
	gap := max(18, width/120)

	return Layout{
		Width:   width,
		Height:  height,
		Columns: cols,
		Rows:    rows,
		Margin:  margin,
		Gap:     gap,
		CellW:   (width - 2*margin - (cols-1)*gap) / cols,
		CellH:   (height - 2*margin - (rows-1)*gap) / rows,
	}
}

// Cell returns the rectangle of the i-th item in row-major order.
func (l Layout) Cell(i int) Rect {
	row := i / l.Columns
	col := i % l.Columns
	return Rect{
		X: l.Margin + col*(l.CellW+l.Gap),
		Y: l.Margin + row*(l.CellH+l.Gap),
		W: l.CellW,
		H: l.CellH,
	}
}

package board

// Lines maps each of the ten lines to its cells: rows, then columns, then
// the two diagonals.
var Lines = [NumLines][Dim]int{
	{0, 1, 2, 3},
	{4, 5, 6, 7},
	{8, 9, 10, 11},
	{12, 13, 14, 15},

	{0, 4, 8, 12},
	{1, 5, 9, 13},
	{2, 6, 10, 14},
	{3, 7, 11, 15},

	{0, 5, 10, 15},
	{3, 6, 9, 12},
}

// LinesThrough lists, per cell, the lines that contain it.
var LinesThrough [NumCells][]int

func init() {
	for li, cells := range Lines {
		for _, c := range cells {
			LinesThrough[c] = append(LinesThrough[c], li)
		}
	}
}

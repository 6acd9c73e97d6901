package mot

import (
	"github.com/charles-haynes/munkres"
)

// SolveAssignment solves the rectangular minimum-cost assignment problem
// exactly (Kuhn-Munkres). It returns two equal-length index slices: rows[k]
// is matched to cols[k], k < min(R, C), with minimal total cost. An empty
// dimension yields empty outputs. The input matrix is never mutated.
//
// Pairs are emitted in ascending row order so that identical inputs always
// produce identical outputs.
func SolveAssignment(costs [][]float64) (rows []int, cols []int) {
	numRows := len(costs)
	numCols := 0
	if numRows > 0 {
		numCols = len(costs[0])
	}
	rows = make([]int, 0, min(numRows, numCols))
	cols = make([]int, 0, min(numRows, numCols))
	if numRows == 0 || numCols == 0 {
		return rows, cols
	}

	// The solver wants its own copy anyway, so pad the short side to a square
	// with a uniform dummy cost: every dummy assignment contributes the same
	// amount, which preserves the optimum over the real entries.
	size := max(numRows, numCols)
	padded := make([][]float64, size)
	for i := 0; i < size; i++ {
		padded[i] = make([]float64, size)
		if i < numRows {
			copy(padded[i], costs[i])
		}
	}

	solver, err := munkres.NewHungarianAlgorithm(padded)
	if err != nil {
		// Unreachable: padded is non-empty and regular
		return rows, cols
	}
	assignment := solver.Execute()
	for i := 0; i < numRows && i < len(assignment); i++ {
		j := assignment[i]
		if j < 0 || j >= numCols {
			// Row matched to a dummy column
			continue
		}
		rows = append(rows, i)
		cols = append(cols, j)
	}
	return rows, cols
}

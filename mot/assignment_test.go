package mot

import (
	"math"
	"testing"
)

// bruteForceSquare finds the minimal total cost of a perfect matching on a
// small square matrix by trying every permutation
func bruteForceSquare(costs [][]float64) float64 {
	n := len(costs)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	best := math.Inf(1)
	var walk func(k int)
	walk = func(k int) {
		if k == n {
			total := 0.0
			for i, j := range perm {
				total += costs[i][j]
			}
			if total < best {
				best = total
			}
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			walk(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	walk(0)
	return best
}

func assignmentTotal(costs [][]float64, rows, cols []int) float64 {
	total := 0.0
	for k := range rows {
		total += costs[rows[k]][cols[k]]
	}
	return total
}

func TestSolveAssignmentKnownOptimum(t *testing.T) {
	costs := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	rows, cols := SolveAssignment(costs)
	if len(rows) != 3 || len(cols) != 3 {
		t.Fatalf("expected 3 pairs, got %d/%d", len(rows), len(cols))
	}
	// The optimum is unique here: 1 + 2 + 2 = 5
	expectedCols := []int{1, 0, 2}
	for k := range rows {
		if rows[k] != k || cols[k] != expectedCols[k] {
			t.Errorf("pair %d: got (%d;%d), expected (%d;%d)", k, rows[k], cols[k], k, expectedCols[k])
		}
	}
	if total := assignmentTotal(costs, rows, cols); math.Abs(total-5.0) > eps {
		t.Errorf("wrong total: %v, expected 5.0", total)
	}
}

func TestSolveAssignmentMatchesBruteForce(t *testing.T) {
	matrices := [][][]float64{
		{{7, 5, 11}, {5, 4, 1}, {9, 3, 2}},
		{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
		{{10.5, 2.25, 3}, {4, 0.5, 6.75}, {7, 8.125, 0.25}},
		{{0, 100, 100}, {100, 0, 100}, {100, 100, 0}},
		// A greedy row-by-row pick lands on 178.6 here; the optimum is 72.9
		{
			{66.1, 45.8, 38.8, 14.4},
			{84.8, 14.6, 18, 69.5},
			{87.3, 85.2, 13, 94.4},
			{30.9, 80.2, 0.1, 37.9},
		},
	}
	for idx, costs := range matrices {
		n := len(costs)
		rows, cols := SolveAssignment(costs)
		if len(rows) != n {
			t.Fatalf("matrix %d: expected %d pairs, got %d", idx, n, len(rows))
		}
		usedRows := map[int]struct{}{}
		usedCols := map[int]struct{}{}
		for k := range rows {
			usedRows[rows[k]] = struct{}{}
			usedCols[cols[k]] = struct{}{}
		}
		if len(usedRows) != n || len(usedCols) != n {
			t.Errorf("matrix %d: rows/columns reused", idx)
		}
		best := bruteForceSquare(costs)
		if total := assignmentTotal(costs, rows, cols); math.Abs(total-best) > eps {
			t.Errorf("matrix %d: total %v, brute force found %v", idx, total, best)
		}
	}
}

func TestSolveAssignmentSmallMatrices(t *testing.T) {
	// Single-entry and 2x2 inputs are the common case for sparse scenes and
	// must still produce full matchings
	rows, cols := SolveAssignment([][]float64{{5}})
	if len(rows) != 1 || rows[0] != 0 || cols[0] != 0 {
		t.Fatalf("1x1: expected pair (0;0), got %v/%v", rows, cols)
	}

	rows, cols = SolveAssignment([][]float64{{2, 1}})
	if len(rows) != 1 || rows[0] != 0 || cols[0] != 1 {
		t.Fatalf("1x2: expected pair (0;1), got %v/%v", rows, cols)
	}

	costs := [][]float64{
		{2, 1},
		{1, 2},
	}
	rows, cols = SolveAssignment(costs)
	if len(rows) != 2 {
		t.Fatalf("2x2: expected 2 pairs, got %d", len(rows))
	}
	if total := assignmentTotal(costs, rows, cols); math.Abs(total-2.0) > eps {
		t.Errorf("2x2: wrong total %v, expected 2.0 (anti-diagonal)", total)
	}
}

func TestSolveAssignmentRectangular(t *testing.T) {
	// Wide: 2 rows, 3 columns
	wide := [][]float64{
		{1, 2, 3},
		{2, 4, 6},
	}
	rows, cols := SolveAssignment(wide)
	if len(rows) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(rows))
	}
	if cols[0] == cols[1] {
		t.Error("column used twice")
	}
	if total := assignmentTotal(wide, rows, cols); math.Abs(total-4.0) > eps {
		t.Errorf("wrong total: %v, expected 4.0", total)
	}

	// Tall: 3 rows, 2 columns
	tall := [][]float64{
		{1, 2},
		{3, 1},
		{5, 5},
	}
	rows, cols = SolveAssignment(tall)
	if len(rows) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(rows))
	}
	if total := assignmentTotal(tall, rows, cols); math.Abs(total-2.0) > eps {
		t.Errorf("wrong total: %v, expected 2.0", total)
	}
}

func TestSolveAssignmentDegenerate(t *testing.T) {
	rows, cols := SolveAssignment([][]float64{})
	if len(rows) != 0 || len(cols) != 0 {
		t.Errorf("empty matrix: expected empty outputs, got %v/%v", rows, cols)
	}
	rows, cols = SolveAssignment([][]float64{{}, {}})
	if len(rows) != 0 || len(cols) != 0 {
		t.Errorf("zero columns: expected empty outputs, got %v/%v", rows, cols)
	}
}

func TestSolveAssignmentDoesNotMutateInput(t *testing.T) {
	costs := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
	}
	backup := make([][]float64, len(costs))
	for i, row := range costs {
		backup[i] = append([]float64{}, row...)
	}
	SolveAssignment(costs)
	for i := range costs {
		for j := range costs[i] {
			if costs[i][j] != backup[i][j] {
				t.Fatalf("input mutated at (%d;%d)", i, j)
			}
		}
	}
}

package correction

import "github.com/jaskrrish/Go-QEC/internal/qec/quantum"

// Enumerate lists every Pauli error on numQubits qubits with weight
// 0..maxWeight in decoding order: ascending weight, then qubit sets in
// lexicographic combination order, then Pauli assignments in lexicographic
// product order with X < Y < Z. The first error listed for a syndrome is the
// one the decoder keeps.
func Enumerate(numQubits, maxWeight int) []quantum.PauliError {
	if maxWeight > numQubits {
		maxWeight = numQubits
	}

	var errs []quantum.PauliError
	for w := 0; w <= maxWeight; w++ {
		forEachCombination(numQubits, w, func(qubits []int) {
			forEachAssignment(len(qubits), func(ops []quantum.PauliOperator) {
				e := quantum.Identity()
				for i, q := range qubits {
					e = e.With(q, ops[i])
				}
				errs = append(errs, e)
			})
		})
	}
	return errs
}

// forEachCombination visits every k-subset of 0..n-1 in lexicographic order.
// The slice passed to visit is reused between calls.
func forEachCombination(n, k int, visit func([]int)) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		visit(idx)

		// advance the rightmost index that still has room
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// forEachAssignment visits every length-k tuple over X, Y, Z, last position
// varying fastest
func forEachAssignment(k int, visit func([]quantum.PauliOperator)) {
	digits := make([]int, k)
	ops := make([]quantum.PauliOperator, k)
	for {
		for i, d := range digits {
			ops[i] = quantum.AllPaulis[d]
		}
		visit(ops)

		i := k - 1
		for i >= 0 && digits[i] == len(quantum.AllPaulis)-1 {
			digits[i] = 0
			i--
		}
		if i < 0 {
			return
		}
		digits[i]++
	}
}

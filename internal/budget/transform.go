package budget

// Transform folds a spending tree bottom-up. Program leaves are split into
// operating and capital by CapitalShare, and the reduction for the leaf's
// category is applied to 2025 operating spending only. Transfer, debt and
// other leaves pass through. Each leaf's display Amount becomes its
// adjusted 2025 value. Empty nodes contribute zero.
func Transform(n Node, r Reductions) (Node, SplitAmounts) {
	switch n.Type {
	case NodeLeaf:
		return transformLeaf(n, r)

	case NodeParent:
		out := n
		out.Children = make([]Node, len(n.Children))
		var sums SplitAmounts
		for i, c := range n.Children {
			child, s := Transform(c, r)
			out.Children[i] = child
			sums = sums.Add(s)
		}
		return out, sums
	}
	return n, SplitAmounts{}
}

func transformLeaf(n Node, r Reductions) (Node, SplitAmounts) {
	out := n
	out.Amount = n.Amount2025

	switch n.Kind {
	case KindTransfer:
		return out, SplitAmounts{Transfer2024: n.Amount2024, Transfer2025: n.Amount2025}
	case KindDebt:
		return out, SplitAmounts{Debt2024: n.Amount2024, Debt2025: n.Amount2025}
	case KindOther:
		return out, SplitAmounts{Other2024: n.Amount2024, Other2025: n.Amount2025}
	}

	split := SplitLeaf(n.Amount2024, n.Amount2025, n.CapitalShare)
	pct := r.For(DepartmentCategory(n.Name))
	opAfter2025 := split.Op2025 * (1 - pct/100)

	out.Amount = opAfter2025 + split.Capital2025
	return out, SplitAmounts{
		Op2024:      split.Op2024,
		Capital2024: split.Capital2024,
		Op2025:      opAfter2025,
		Capital2025: split.Capital2025,
	}
}

// SplitLeaf divides a program leaf's amounts into operating and capital.
func SplitLeaf(a2024, a2025, capitalShare float64) SplitAmounts {
	cap2024 := a2024 * capitalShare
	cap2025 := a2025 * capitalShare
	return SplitAmounts{
		Op2024:      a2024 - cap2024,
		Capital2024: cap2024,
		Op2025:      a2025 - cap2025,
		Capital2025: cap2025,
	}
}

// ProcessRevenue copies each leaf's 2025 amount into its display Amount.
// Revenue is never reduced.
func ProcessRevenue(n Node) Node {
	switch n.Type {
	case NodeLeaf:
		out := n
		out.Amount = n.Amount2025
		return out
	case NodeParent:
		out := n
		out.Children = make([]Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = ProcessRevenue(c)
		}
		return out
	}
	return n
}

// Total sums leaf amounts, using 2025 when projected and 2024 otherwise.
func Total(n Node, projected bool) float64 {
	switch n.Type {
	case NodeLeaf:
		if projected {
			return n.Amount2025
		}
		return n.Amount2024
	case NodeParent:
		var sum float64
		for _, c := range n.Children {
			sum += Total(c, projected)
		}
		return sum
	}
	return 0
}

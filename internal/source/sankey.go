package source

import "github.com/mackenziebowes/CanadaSpends/internal/budget"

// SankeyToTree converts a sankey flow tree into a budget tree. Sankey data
// has a single amount per leaf, which is used for both years.
func SankeyToTree(n SankeyNode) budget.Node {
	if len(n.Children) > 0 {
		children := make([]budget.Node, 0, len(n.Children))
		for _, c := range n.Children {
			children = append(children, SankeyToTree(c))
		}
		return budget.Parent(n.Name, children...)
	}
	if n.Amount == nil {
		return budget.Node{Type: budget.NodeEmpty, Name: n.Name}
	}
	return budget.Leaf(n.Name, *n.Amount, *n.Amount)
}

// SpendingTree returns the jurisdiction's spending flow as a budget tree.
func (s Sankey) SpendingTree() budget.Node {
	return SankeyToTree(s.SpendingData)
}

// RevenueTree returns the jurisdiction's revenue flow as a budget tree.
func (s Sankey) RevenueTree() budget.Node {
	return SankeyToTree(s.RevenueData)
}

// Summarize folds the jurisdiction's sankey trees through the budget
// aggregator. Sankey names rarely match federal departments, so most
// reductions only reach the Other category.
func (d Data) Summarize(r budget.Reductions) budget.Summary {
	return budget.Summarize(d.Sankey.SpendingTree(), d.Sankey.RevenueTree(), r)
}

package source

import "path/filepath"

// Kind is the order of government a jurisdiction belongs to.
type Kind string

// Jurisdiction kinds, matching the top-level data directories.
const (
	KindProvincial Kind = "provincial"
	KindMunicipal  Kind = "municipal"
)

// Data file names inside a jurisdiction's data folder.
const (
	SummaryFile    = "summary.json"
	SankeyFile     = "sankey.json"
	DepartmentsDir = "departments"
)

// DiscoveredJurisdiction is a jurisdiction found during directory scanning.
type DiscoveredJurisdiction struct {
	Path     string // data folder, the latest year folder when present
	Root     string // jurisdiction directory
	Kind     Kind
	Province string // province slug; for provincial entries it equals Slug
	Slug     string
	Year     string // empty when the jurisdiction has no year folders
}

// Key returns the lookup slug: "ontario" or "ontario/toronto".
func (d DiscoveredJurisdiction) Key() string {
	if d.Kind == KindMunicipal {
		return d.Province + "/" + d.Slug
	}
	return d.Slug
}

// SummaryPath returns the path of the jurisdiction's summary.json.
func (d DiscoveredJurisdiction) SummaryPath() string {
	return filepath.Join(d.Path, SummaryFile)
}

// SankeyPath returns the path of the jurisdiction's sankey.json.
func (d DiscoveredJurisdiction) SankeyPath() string {
	return filepath.Join(d.Path, SankeyFile)
}

// Reference is a cited data source.
type Reference struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Scope string `json:"scope,omitempty"`
}

// Ministry is a top-level spending line listed in summary.json.
type Ministry struct {
	Name                   string  `json:"name"`
	Slug                   string  `json:"slug,omitempty"`
	TotalSpending          float64 `json:"totalSpending"`
	TotalSpendingFormatted string  `json:"totalSpendingFormatted,omitempty"`
	Percentage             float64 `json:"percentage"`
	PercentageFormatted    string  `json:"percentageFormatted,omitempty"`
}

// Summary is the headline data of a jurisdiction. Null amounts decode as zero.
type Summary struct {
	Name                             string      `json:"name"`
	FinancialYear                    string      `json:"financialYear"`
	TotalEmployees                   float64     `json:"totalEmployees"`
	TotalProvincialSpending          float64     `json:"totalProvincialSpending"`
	TotalProvincialSpendingFormatted string      `json:"totalProvincialSpendingFormatted"`
	Total                            float64     `json:"total"`
	Source                           string      `json:"source"`
	Sources                          []Reference `json:"sources,omitempty"`
	Ministries                       []Ministry  `json:"ministries,omitempty"`
	DebtInterest                     float64     `json:"debtInterest"`
	NetDebt                          float64     `json:"netDebt"`
	TotalDebt                        float64     `json:"totalDebt"`
	Population                       float64     `json:"population,omitempty"`
	BudgetBalance                    float64     `json:"budgetBalance,omitempty"`
	Methodology                      string      `json:"methodology,omitempty"`
	Credits                          string      `json:"credits,omitempty"`
}

// Jurisdiction is a parsed summary tagged with its slug.
type Jurisdiction struct {
	Slug string `json:"slug"`
	Summary
}

// SankeyNode is one node of a sankey flow tree. Leaves carry an amount.
type SankeyNode struct {
	Name     string       `json:"name"`
	Amount   *float64     `json:"amount,omitempty"`
	Children []SankeyNode `json:"children,omitempty"`
}

// Total sums the amounts under n.
func (n SankeyNode) Total() float64 {
	if len(n.Children) == 0 {
		if n.Amount == nil {
			return 0
		}
		return *n.Amount
	}
	var sum float64
	for _, c := range n.Children {
		sum += c.Total()
	}
	return sum
}

// Sankey is the revenue and spending flow of a jurisdiction.
type Sankey struct {
	Total        float64    `json:"total"`
	Spending     float64    `json:"spending"`
	Revenue      float64    `json:"revenue"`
	SpendingData SankeyNode `json:"spending_data"`
	RevenueData  SankeyNode `json:"revenue_data"`
}

// Data is everything loaded for one jurisdiction.
type Data struct {
	Jurisdiction Jurisdiction `json:"jurisdiction"`
	Sankey       Sankey       `json:"sankey"`
}

// DepartmentLine is a named amount within a department.
type DepartmentLine struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Department is a parsed departments/<slug>.json file.
type Department struct {
	Slug                   string           `json:"slug"`
	Name                   string           `json:"name"`
	TotalSpending          float64          `json:"totalSpending"`
	TotalSpendingFormatted string           `json:"totalSpendingFormatted"`
	Percentage             float64          `json:"percentage"`
	PercentageFormatted    string           `json:"percentageFormatted"`
	Categories             []DepartmentLine `json:"categories"`
	SpendingData           SankeyNode       `json:"spending_data"`
	GeneratedAt            string           `json:"generatedAt"`
	IntroText              string           `json:"introText,omitempty"`
	DescriptionText        string           `json:"descriptionText,omitempty"`
	RoleText               string           `json:"roleText,omitempty"`
	ProgramsHeading        string           `json:"programsHeading,omitempty"`
	ProgramsDescription    string           `json:"programsDescription,omitempty"`
	BudgetProjectionsText  string           `json:"budgetProjectionsText,omitempty"`
}

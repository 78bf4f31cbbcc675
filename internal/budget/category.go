package budget

import "strings"

// Category is a federal spending category that reductions are applied to.
type Category string

// Spending categories.
const (
	CategoryHealth                Category = "Health"
	CategoryPublicSafety          Category = "Public Safety"
	CategorySocialServices        Category = "Social Services & Employment"
	CategoryEconomy               Category = "Economy + Innovation & Research"
	CategoryImmigration           Category = "Immigration & Border Services"
	CategoryGovernmentOperations  Category = "Government Operations"
	CategoryCulture               Category = "Culture & Official Languages"
	CategoryRevenueAdministration Category = "Revenue & Tax Administration"
	CategoryOther                 Category = "Other Federal Programs"
	CategoryInternationalAffairs  Category = "International Affairs"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryHealth,
	CategoryPublicSafety,
	CategorySocialServices,
	CategoryEconomy,
	CategoryImmigration,
	CategoryGovernmentOperations,
	CategoryCulture,
	CategoryRevenueAdministration,
	CategoryOther,
	CategoryInternationalAffairs,
}

// Known reports whether c is one of Categories.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// DepartmentCategory maps a department or program name to its spending
// category. Unmapped names belong to CategoryOther.
func DepartmentCategory(department string) Category {
	switch department {
	case "Health Care Systems + Protection",
		"Food Safety",
		"Public Health + Disease Prevention",
		"Health Research":
		return CategoryHealth

	case "RCMP",
		"Corrections",
		"Justice System",
		"Community Safety",
		"CSIS",
		"Disaster Relief",
		"Other Public Safety Expenses":
		return CategoryPublicSafety

	case "Employment + Training",
		"Housing Assistance",
		"Gender Equality":
		return CategorySocialServices

	case "Other Immigration Services",
		"Border Security",
		"Settlement Assistance",
		"Citizenship + Passports",
		"Visitors, International Students + Temporary Workers",
		"Interim Housing Assistance":
		return CategoryImmigration

	case "Other International Affairs Activities",
		"Development, Peace + Security Programming",
		"Support for Embassies + Canada's Presence Abroad",
		"International Diplomacy",
		"Trade and Investment",
		"International Development Research Centre":
		return CategoryInternationalAffairs

	case "Investment, Growth and Commercialization",
		"Research",
		"Statistics Canada",
		"Other Boards + Councils",
		"Infrastructure Investments",
		"Innovative and Sustainable Natural Resources Development",
		"Nuclear Labs + Decommissioning",
		"Support for Global Competition",
		"Natural Resources Science + Risk Mitigation",
		"Other Natural Resources Management Support",
		"Transportation",
		"Coastguard Operations",
		"Fisheries + Aquatic Ecosystems",
		"Other Fisheries Expenses",
		"Agriculture",
		"Other Environment and Climate Change Programs",
		"Weather Services",
		"Nature Conservation",
		"National Parks",
		"Space",
		"Banking + Finance":
		return CategoryEconomy

	case "Other Public Services + Procurement",
		"Government IT Operations",
		"Parliament",
		"Privy Council Office",
		"Treasury Board",
		"Office of the Secretary to the Governor General",
		"Office of the Chief Electoral Officer":
		return CategoryGovernmentOperations

	case "Official Languages + Culture":
		return CategoryCulture

	case "Revenue Canada":
		return CategoryRevenueAdministration
	}
	return CategoryOther
}

// ReducibleCategories reports the categories that at least one program leaf
// under root maps to. Reductions on other categories leave totals unchanged.
func ReducibleCategories(root Node) map[Category]bool {
	out := make(map[Category]bool)
	for _, leaf := range root.Leaves() {
		if leaf.Kind == KindProgram || leaf.Kind == "" {
			out[DepartmentCategory(leaf.Name)] = true
		}
	}
	return out
}

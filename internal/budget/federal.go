package budget

const majorTransfersURL = "https://www.canada.ca/en/department-finance/programs/federal-transfers/major-federal-transfers.html"

// FederalSpending returns the federal spending tree for 2024 and 2025, in
// billions of dollars. Each call returns a fresh tree.
func FederalSpending() Node {
	return Parent("Spending",
		Parent("Social Security",
			Transfer("Retirement Benefits", 76.03, 83.1),
			Transfer("Employment Insurance", 23.13, 30.5),
			Transfer("Children's Benefits", 26.34, 30.1),
			Transfer("COVID-19 Income Support", -4.84, 0),
		),
		ParentWithLink("Transfers to Provinces", majorTransfersURL,
			Leaf("Health Transfer to Provinces", 49.42, 54.7),
			Leaf("Social Transfer to Provinces", 16.42, 17.4),
			Leaf("Equalization Payments to Provinces", 23.963, 26.2),
			Leaf("Territorial Formula Financing", 4.8, 5.5),
			Leaf("Health agreements with provinces and territories", 4.3, 4.3),
			Leaf("Canada-wide early learning and child care", 5.6, 7.9),
			Leaf("Canada Community-Building Fund", 2.4, 2.5),
			Leaf("Other fiscal arrangements", -6.7, -7.6),
		),
		Leaf("Pollution pricing", 9.9, 5.0),
		Debt("Public Debt Charges", 47.27, 55.6),
		Parent("Direct program expenses",
			Leaf("Other transfer payments", 88.7, 115.6),
			Leaf("Other direct program expenses", 130.9, 150.2),
		),
		Leaf("Net actuarial losses (gains)", 7.6, 5.0),
	)
}

// FederalRevenue returns the federal revenue tree for 2024 and 2025, in
// billions of dollars.
func FederalRevenue() Node {
	return Parent("Revenue",
		Parent("Other Taxes and Duties",
			Leaf("Goods and Services Tax", 51.42, 54.4),
			Leaf("Customs Import Duties", 5.57, 9.9),
			Leaf("Other Excise Taxes and Duties", 6.83, 13.2),
		),
		Parent("Income Tax Revenues",
			Leaf("Individual Income Tax", 217.7, 237.9),
			Leaf("Corporate Income Tax", 82.47, 97.1),
			Leaf("Non-Resident Income Tax", 12.54, 13.7),
		),
		Leaf("Employment Insurance Premiums", 29.56, 32.2),
		Leaf("Pollution pricing proceeds", 9.86, 0),
		Parent("Other Non-Tax Revenue",
			Leaf("Crown Corporations and other government business enterprises", 3.22, 11.3),
			Leaf("Net Foreign Exchange Revenue and Return on Investments", 4.28, 6.0),
			Leaf("Other Programs", 15.87, 31.8),
		),
	)
}

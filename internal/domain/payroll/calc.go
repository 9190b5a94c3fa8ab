package payroll

import "github.com/shopspring/decimal"

// Line is a structure component as the calculator sees it. Amount is either
// a currency value or a percentage of basic salary depending on Type.
type Line struct {
	Name   string
	Type   string
	Amount float64
}

type Breakdown struct {
	BasicSalary     float64 `json:"basicSalary"`
	Allowances      []Item  `json:"allowances"`
	Deductions      []Item  `json:"deductions"`
	TotalAllowances float64 `json:"totalAllowances"`
	TotalDeductions float64 `json:"totalDeductions"`
	GrossPay        float64 `json:"grossPay"`
	NetPay          float64 `json:"netPay"`
}

// Round2 rounds half away from zero to two decimal places. The value is
// taken at its shortest decimal form so 1.005 rounds to 1.01.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func lineValue(basic float64, line Line) float64 {
	if line.Type == TypePercentage {
		return Round2(basic * line.Amount / 100)
	}
	return Round2(line.Amount)
}

func itemsFor(basic float64, lines []Line) ([]Item, float64) {
	items := make([]Item, 0, len(lines))
	var total float64
	for _, line := range lines {
		value := lineValue(basic, line)
		item := Item{Name: line.Name, Type: line.Type, Amount: value}
		if line.Type == TypePercentage {
			item.Rate = line.Amount
		}
		items = append(items, item)
		total += value
	}
	return items, Round2(total)
}

func Compute(basic float64, allowances, deductions []Line) Breakdown {
	basic = Round2(basic)
	allowanceItems, totalAllowances := itemsFor(basic, allowances)
	deductionItems, totalDeductions := itemsFor(basic, deductions)
	gross := Round2(basic + totalAllowances)
	return Breakdown{
		BasicSalary:     basic,
		Allowances:      allowanceItems,
		Deductions:      deductionItems,
		TotalAllowances: totalAllowances,
		TotalDeductions: totalDeductions,
		GrossPay:        gross,
		NetPay:          Round2(gross - totalDeductions),
	}
}

package payroll

import "testing"

func TestCompute(t *testing.T) {
	allowances := []Line{
		{Name: "Housing", Type: TypePercentage, Amount: 20},
		{Name: "Transport", Type: TypeFixed, Amount: 500},
	}
	deductions := []Line{
		{Name: "NAPSA", Type: TypePercentage, Amount: 5},
		{Name: "Union", Type: TypeFixed, Amount: 100},
	}

	b := Compute(10000, allowances, deductions)
	if b.TotalAllowances != 2500 {
		t.Fatalf("expected allowances 2500, got %v", b.TotalAllowances)
	}
	if b.GrossPay != 12500 {
		t.Fatalf("expected gross 12500, got %v", b.GrossPay)
	}
	if b.TotalDeductions != 600 {
		t.Fatalf("expected deductions 600, got %v", b.TotalDeductions)
	}
	if b.NetPay != 11900 {
		t.Fatalf("expected net 11900, got %v", b.NetPay)
	}
	if b.Allowances[0].Rate != 20 || b.Allowances[0].Amount != 2000 {
		t.Fatalf("unexpected housing line %+v", b.Allowances[0])
	}
}

func TestComputeRoundsEachLine(t *testing.T) {
	// 3333.33 * 2.5% = 83.33325
	b := Compute(3333.33, nil, []Line{{Name: "Levy", Type: TypePercentage, Amount: 2.5}})
	if b.TotalDeductions != 83.33 {
		t.Fatalf("expected 83.33, got %v", b.TotalDeductions)
	}
	if b.NetPay != 3250 {
		t.Fatalf("expected net 3250, got %v", b.NetPay)
	}
}

func TestComputeWithoutComponents(t *testing.T) {
	b := Compute(500, nil, nil)
	if b.GrossPay != 500 || b.NetPay != 500 {
		t.Fatalf("expected 500/500, got %v/%v", b.GrossPay, b.NetPay)
	}
	if b.Allowances == nil || b.Deductions == nil {
		t.Fatal("expected empty, non-nil item slices")
	}
}

func TestComputeNegativeNet(t *testing.T) {
	b := Compute(1000, nil, []Line{{Name: "Advance", Type: TypeFixed, Amount: 1500}})
	if b.NetPay != -500 {
		t.Fatalf("expected net -500, got %v", b.NetPay)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		10:      10,
		0.125:   0.13,
		-0.125:  -0.13,
		0.375:   0.38,
		-0.375:  -0.38,
		99.9999: 100,
		1.005:   1.01,
		1.015:   1.02,
		-1.005:  -1.01,
		2.675:   2.68,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}

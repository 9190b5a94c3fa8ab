package settings

import "time"

const (
	KeyCompanyName    = "company_name"
	KeyCompanyAddress = "company_address"
	KeyCurrencySymbol = "currency_symbol"
	KeySMTPConfig     = "smtp_config"
)

type Setting struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Company struct {
	Name           string `json:"companyName"`
	Address        string `json:"companyAddress"`
	CurrencySymbol string `json:"currencySymbol"`
}

package domain

// BillingProfile is the customer data required to put a boleto on the street.
// Owned by the CRM side of the system; consumed here read-only.
type BillingProfile struct {
	CustomerID string `json:"customer_id"`
	Nome       string `json:"nome"`
	Documento  string `json:"documento"` // CPF or CNPJ, may carry separators
	Endereco   string `json:"endereco"`
	Cidade     string `json:"cidade"`
	Bairro     string `json:"bairro"`
	UF         string `json:"uf"`
	CEP        string `json:"cep"`
}

// MissingBillingFields returns the billing fields the profile lacks, in a
// stable order. Empty result means the profile is complete.
func (p *BillingProfile) MissingBillingFields() []string {
	var missing []string
	if p.Documento == "" {
		missing = append(missing, "documento")
	}
	if p.Endereco == "" {
		missing = append(missing, "endereco")
	}
	if p.Cidade == "" {
		missing = append(missing, "cidade")
	}
	if p.Bairro == "" {
		missing = append(missing, "bairro")
	}
	if p.UF == "" {
		missing = append(missing, "uf")
	}
	if p.CEP == "" {
		missing = append(missing, "cep")
	}
	return missing
}

// Order is the commercial order a boleto references.
type Order struct {
	Number     string  `json:"number"`
	CustomerID string  `json:"customer_id"`
	Total      float64 `json:"total"`
}

// Account is the issuing bank account, carrying the Cobrança agreement.
type Account struct {
	ID       string `json:"id"`
	Agencia  string `json:"agencia"`
	Conta    string `json:"conta"`
	Convenio string `json:"convenio"` // 7-digit agreement used for Nosso Número
	Carteira int    `json:"carteira"`
}

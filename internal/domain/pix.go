package domain

import "time"

// ============================================================
// PIX recebimentos (consulta de transações recebidas)
// ============================================================

// PixReceived is one received PIX transaction from the bank's consultation
// endpoint.
type PixReceived struct {
	EndToEndID  string    `json:"endToEndId"`
	TxID        string    `json:"txid,omitempty"`
	Valor       float64   `json:"valor"`
	Horario     time.Time `json:"horario"`
	PagadorDoc  string    `json:"pagador_documento,omitempty"`
	PagadorNome string    `json:"pagador_nome,omitempty"`
	InfoPagador string    `json:"info_pagador,omitempty"`
}

// PixReceivedQuery bounds a received-transactions consultation. The window
// (Start, End] must not exceed the bank's maximum.
type PixReceivedQuery struct {
	Start    time.Time
	End      time.Time
	FetchAll bool // walk paginacao.paginaAtual until the last page
	Page     int  // starting page when FetchAll is false
}

// PixReceivedPage is one page of received transactions.
type PixReceivedPage struct {
	Transactions []PixReceived `json:"transacoes"`
	Page         int           `json:"pagina_atual"`
	TotalPages   int           `json:"quantidade_paginas"`
}

package models

// IncomeEntry is one recorded foreign-currency income transaction. TryValue is
// computed once at creation from Amount and ExchangeRate and stored; it is
// never recomputed when daily rates move.
type IncomeEntry struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"` // DD.MM.YYYY
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"` // USD, EUR or GBP
	ExchangeRate float64 `json:"exchangeRate"`
	TryValue     float64 `json:"tryValue"`
}

// NewIncomeEntry is the client payload for creating an entry. The server
// assigns the id and computes the TRY value.
type NewIncomeEntry struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

// ExchangeRate is one currency row of the TCMB daily bulletin. Buying and
// Selling keep the raw bulletin strings; "N/A" marks a missing field.
type ExchangeRate struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Buying  string `json:"buying"`
	Selling string `json:"selling"`
}

// RateTable is the validated result of one bulletin fetch.
type RateTable struct {
	AsOfDate string         `json:"asOfDate"` // long-form Turkish date, e.g. "5 Kasım 2025"
	Rates    []ExchangeRate `json:"rates"`
}

// Task is one onboarding checklist step. CompletedDate is set on the first
// transition to completed and never cleared.
type Task struct {
	ID            int    `json:"id"`
	Text          string `json:"text"`
	Details       string `json:"details"`
	Completed     bool   `json:"completed"`
	CompletedDate string `json:"completedDate,omitempty"`
}

// ExemptionState is derived from the ledger total and the configured yearly
// limit at read time; it is never stored.
type ExemptionState struct {
	Total          float64 `json:"total"`
	PercentageUsed float64 `json:"percentageUsed"`
	Remaining      float64 `json:"remaining"` // negative when over the limit
	Limit          float64 `json:"limit"`
	TaxYear        int     `json:"taxYear"`
}

// ChatMessage is one turn of the assistant conversation.
type ChatMessage struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Sender string `json:"sender"` // "user" or "ai"
}

// Notification is one entry of the append-only notification feed.
type Notification struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"` // "success", "warning" or "info"
}

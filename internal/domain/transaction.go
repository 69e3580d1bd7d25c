package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, the same shape the response schema declares.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction is one recurring-payment record.
// Records are never mutated after creation; a TransactionStore is replaced as a batch.
type Transaction struct {
	ID       string          `json:"id"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Date     civil.Date      `json:"date"` // YYYY-MM-DD
	Category string          `json:"category"`
}

// TransactionStore is an immutable, ordered batch of transactions.
type TransactionStore struct {
	txs []Transaction
}

// NewTransactionStore copies txs into a new store.
// Callers are expected to have checked ID uniqueness (see source.Decode).
func NewTransactionStore(txs []Transaction) *TransactionStore {
	cp := make([]Transaction, len(txs))
	copy(cp, txs)
	return &TransactionStore{txs: cp}
}

// All returns a copy of the transactions in their original order.
func (s *TransactionStore) All() []Transaction {
	if s == nil {
		return []Transaction{}
	}
	cp := make([]Transaction, len(s.txs))
	copy(cp, s.txs)
	return cp
}

// Len returns the number of transactions in the store.
func (s *TransactionStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.txs)
}

// Merchants returns the distinct merchant names in first-seen order.
func (s *TransactionStore) Merchants() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range s.All() {
		if seen[t.Merchant] {
			continue
		}
		seen[t.Merchant] = true
		out = append(out, t.Merchant)
	}
	return out
}

package source

import (
	"cloud.google.com/go/civil"
	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/shopspring/decimal"
)

func sample(id, merchant, amount, date, category string) domain.Transaction {
	d, err := civil.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return domain.Transaction{
		ID:       id,
		Merchant: merchant,
		Amount:   decimal.RequireFromString(amount),
		Date:     d,
		Category: category,
	}
}

// SampleTransactions is the built-in store used when no source is configured.
func SampleTransactions() *domain.TransactionStore {
	return domain.NewTransactionStore([]domain.Transaction{
		sample("n1", "Netflix", "15.99", "2023-11-15", "Entertainment"),
		sample("n2", "Netflix", "15.99", "2023-12-15", "Entertainment"),
		sample("n3", "Netflix", "15.99", "2024-01-15", "Entertainment"),
		sample("n4", "Netflix", "15.99", "2024-02-15", "Entertainment"),
		sample("n5", "Netflix", "15.99", "2024-03-15", "Entertainment"),
		sample("n6", "Netflix", "15.99", "2024-04-15", "Entertainment"),
		sample("n7", "Netflix", "15.99", "2024-05-15", "Entertainment"),
		sample("a1", "Adobe Creative", "52.99", "2023-11-01", "Software"),
		sample("a2", "Adobe Creative", "52.99", "2023-12-01", "Software"),
		sample("a3", "Adobe Creative", "52.99", "2024-01-01", "Software"),
		sample("d1", "Disney+", "10.99", "2023-11-10", "Entertainment"),
		sample("d2", "Disney+", "10.99", "2023-12-10", "Entertainment"),
		sample("g1", "FitFocus Gym", "45.00", "2023-11-20", "Health"),
		sample("c1", "CloudStorage", "9.99", "2023-11-05", "Software"),
	})
}

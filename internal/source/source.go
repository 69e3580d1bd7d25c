package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/smartpause/internal/domain"
)

// ObjectFetcher downloads an object from cloud storage.
// This interface enables mocking of GCS in tests.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, object string) ([]byte, error)
}

// GCSFetcher is the concrete ObjectFetcher backed by Google Cloud Storage.
// It assumes Application Default Credentials are configured.
type GCSFetcher struct{}

// Fetch reads the whole object into memory.
func (GCSFetcher) Fetch(ctx context.Context, bucket, object string) ([]byte, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Loader resolves a transaction source URI into a TransactionStore.
type Loader struct {
	fetcher ObjectFetcher
}

// NewLoader creates a Loader. A nil fetcher uses GCSFetcher.
func NewLoader(fetcher ObjectFetcher) *Loader {
	if fetcher == nil {
		fetcher = GCSFetcher{}
	}
	return &Loader{fetcher: fetcher}
}

// Load reads a JSON array of transactions.
// uri may be empty (built-in sample set), a gs://bucket/object URI, or a local path.
func (l *Loader) Load(ctx context.Context, uri string) (*domain.TransactionStore, error) {
	if uri == "" {
		return SampleTransactions(), nil
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(uri, "gs://") {
		bucket, object, perr := splitGCSURI(uri)
		if perr != nil {
			return nil, fmt.Errorf("Load: %w", perr)
		}
		data, err = l.fetcher.Fetch(ctx, bucket, object)
	} else {
		data, err = os.ReadFile(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("Load: reading %s: %w", uri, err)
	}

	store, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("Load: %s: %w", uri, err)
	}
	return store, nil
}

// Decode parses a JSON array of transactions and checks its structural shape:
// every record needs an id, ids are unique, and dates must be YYYY-MM-DD.
func Decode(data []byte) (*domain.TransactionStore, error) {
	var txs []domain.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("unmarshal transactions: %w", err)
	}

	seen := make(map[string]int, len(txs))
	for i, tx := range txs {
		if strings.TrimSpace(tx.ID) == "" {
			return nil, fmt.Errorf("transaction %d: missing id", i)
		}
		if prev, dup := seen[tx.ID]; dup {
			return nil, fmt.Errorf("transaction %d: duplicate id %q (first seen at %d)", i, tx.ID, prev)
		}
		seen[tx.ID] = i
	}

	return domain.NewTransactionStore(txs), nil
}

// splitGCSURI turns "gs://bucket/path/to/file.json" into its bucket and object path.
func splitGCSURI(uri string) (string, string, error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

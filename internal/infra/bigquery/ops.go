package infra

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	transactionsTable = "transactions"
	accountsTable     = "accounts"
	dateFormat        = "2006-01-02"
)

// Client wraps a BigQuery client scoped to one project/dataset pair.
type Client struct {
	bq        *bigquery.Client
	projectID string
	datasetID string
}

// NewClient creates a warehouse client for the given project and dataset.
func NewClient(ctx context.Context, projectID, datasetID string) (*Client, error) {
	bq, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &Client{bq: bq, projectID: projectID, datasetID: datasetID}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.bq.Close()
}

// QueryTransactionsByDateRange returns all transactions whose date falls in
// [startDate, endDate], ordered by date ascending.
func (c *Client) QueryTransactionsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*TransactionRow, error) {
	query := fmt.Sprintf(`
		SELECT
			transaction_id, account_id, transaction_date,
			amount, amount_eur, currency, category_name,
			merchant_name, counterparty_name, raw_description,
			is_internal_transfer
		FROM `+"`%s.%s.%s`"+`
		WHERE transaction_date BETWEEN @start_date AND @end_date
		ORDER BY transaction_date ASC
	`, c.projectID, c.datasetID, transactionsTable)

	q := c.bq.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: run query: %w", err)
	}

	var rows []*TransactionRow
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: read row: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

// QueryAccounts returns every account snapshot in the dataset.
func (c *Client) QueryAccounts(ctx context.Context) ([]*AccountRow, error) {
	query := fmt.Sprintf(`
		SELECT
			account_id, account_name, account_type, currency,
			balance, balance_eur
		FROM `+"`%s.%s.%s`"+`
		ORDER BY account_id ASC
	`, c.projectID, c.datasetID, accountsTable)

	it, err := c.bq.Query(query).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryAccounts: run query: %w", err)
	}

	var rows []*AccountRow
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryAccounts: read row: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

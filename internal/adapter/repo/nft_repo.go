package repo

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"climatefund/internal/infra"
	"climatefund/internal/nft"
	"climatefund/internal/sqlinline"
)

// NFTRepositoryPG implements nft.ReconcilingLedger on PostgreSQL. Saves are
// idempotent per transaction hash.
type NFTRepositoryPG struct {
	sql     infra.SQLExecutor
	metrics *infra.Metrics
}

// NewNFTRepository creates a ledger backed by the virtual_nfts table.
func NewNFTRepository(sql infra.SQLExecutor, metrics *infra.Metrics) *NFTRepositoryPG {
	return &NFTRepositoryPG{sql: sql, metrics: metrics}
}

// Save inserts n unless a record with the same id or transaction exists, in
// which case the stored record is left untouched.
func (r *NFTRepositoryPG) Save(ctx context.Context, n nft.VirtualNFT) error {
	amount := strings.TrimSpace(n.DonationAmount)
	if amount == "" {
		amount = "0"
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertVirtualNFT,
		n.ID,
		n.ProjectID,
		n.ProjectTitle,
		n.DonorAddress,
		amount,
		n.Timestamp,
		int(n.Tier),
		n.TierName,
		n.TierEmoji,
		n.Message,
		n.ImageURL,
		strings.ToLower(n.TxHash),
		n.Contract,
		string(n.Theme),
		n.Reconciled,
	)
	r.metrics.ObserveLedgerWrite(err)
	return err
}

// List returns the records of address (all when empty), oldest first.
func (r *NFTRepositoryPG) List(ctx context.Context, address string) ([]nft.VirtualNFT, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListVirtualNFTs, strings.TrimSpace(address))
	if err != nil {
		return nil, err
	}
	return scanNFTs(rows)
}

// ListUnreconciled returns up to limit unreconciled records, never checked
// ones first and then by oldest check.
func (r *NFTRepositoryPG) ListUnreconciled(ctx context.Context, limit int) ([]nft.VirtualNFT, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListUnreconciledNFTs, limit)
	if err != nil {
		return nil, err
	}
	return scanNFTs(rows)
}

// MarkReconciled flags a record as matching the contract's donation totals.
func (r *NFTRepositoryPG) MarkReconciled(ctx context.Context, id string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkNFTReconciled, id)
	return err
}

// MarkChecked stamps a record whose check did not reconcile so later batches
// reach the records behind it.
func (r *NFTRepositoryPG) MarkChecked(ctx context.Context, id string, at time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkNFTReconcileChecked, id, at.UTC())
	return err
}

func scanNFTs(rows pgx.Rows) ([]nft.VirtualNFT, error) {
	defer rows.Close()
	out := []nft.VirtualNFT{}
	for rows.Next() {
		var n nft.VirtualNFT
		var tier int
		var theme string
		if err := rows.Scan(
			&n.ID,
			&n.ProjectID,
			&n.ProjectTitle,
			&n.DonorAddress,
			&n.DonationAmount,
			&n.Timestamp,
			&tier,
			&n.TierName,
			&n.TierEmoji,
			&n.Message,
			&n.ImageURL,
			&n.TxHash,
			&n.Contract,
			&theme,
			&n.Reconciled,
		); err != nil {
			return nil, err
		}
		n.Tier = nft.Tier(tier)
		n.Theme = nft.Theme(theme)
		out = append(out, n)
	}
	return out, rows.Err()
}

var _ nft.ReconcilingLedger = (*NFTRepositoryPG)(nil)

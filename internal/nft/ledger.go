package nft

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"climatefund/internal/infra"
	"climatefund/internal/storage"
)

// LedgerKey is the storage key of the file-backed collection.
const LedgerKey = "climate-protection-virtual-nfts"

// Ledger stores virtual NFTs. Save never overwrites: a record whose id or
// transaction hash is already stored wins. Implementations match addresses
// case-insensitively; an empty address lists everything.
type Ledger interface {
	Save(ctx context.Context, n VirtualNFT) error
	List(ctx context.Context, address string) ([]VirtualNFT, error)
}

// ReconcilingLedger is a Ledger that can mark records as confirmed against
// the contract's public donation totals.
type ReconcilingLedger interface {
	Ledger
	// ListUnreconciled returns records least recently checked first.
	ListUnreconciled(ctx context.Context, limit int) ([]VirtualNFT, error)
	MarkReconciled(ctx context.Context, id string) error
	// MarkChecked records a check that did not reconcile, moving the record
	// behind the ones not yet checked.
	MarkChecked(ctx context.Context, id string, at time.Time) error
}

// Blob is the key/value store a FileLedger persists into.
type Blob interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// FileLedger keeps the whole collection as one JSON array under LedgerKey.
type FileLedger struct {
	store  Blob
	logger *infra.Logger
	mu     sync.Mutex
}

// NewFileLedger wraps store.
func NewFileLedger(store Blob, logger *infra.Logger) *FileLedger {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &FileLedger{store: store, logger: logger}
}

// Save appends n. When a record with the same id or transaction hash exists
// it is kept unchanged and n is dropped.
func (l *FileLedger) Save(ctx context.Context, n VirtualNFT) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := l.load(ctx)
	for i := range all {
		if sameRecord(all[i], n) {
			return nil
		}
	}
	return l.persist(ctx, append(all, n))
}

// List returns the records of address, oldest first.
func (l *FileLedger) List(ctx context.Context, address string) ([]VirtualNFT, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	all := l.load(ctx)
	l.mu.Unlock()
	out := FilterByDonor(all, address)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// ListUnreconciled returns up to limit records not yet reconciled, never
// checked ones first, then by oldest check.
func (l *FileLedger) ListUnreconciled(ctx context.Context, limit int) ([]VirtualNFT, error) {
	all, err := l.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []VirtualNFT
	for _, n := range all {
		if !n.Reconciled {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReconcileCheckedAt < out[j].ReconcileCheckedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkChecked stamps the record with id with the time of a failed check.
func (l *FileLedger) MarkChecked(ctx context.Context, id string, at time.Time) error {
	return l.update(ctx, id, func(n *VirtualNFT) { n.ReconcileCheckedAt = at.UnixMilli() })
}

// MarkReconciled flags the record with id.
func (l *FileLedger) MarkReconciled(ctx context.Context, id string) error {
	return l.update(ctx, id, func(n *VirtualNFT) { n.Reconciled = true })
}

func (l *FileLedger) update(ctx context.Context, id string, fn func(*VirtualNFT)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := l.load(ctx)
	for i := range all {
		if all[i].ID == id {
			fn(&all[i])
			return l.persist(ctx, all)
		}
	}
	return nil
}

// load reads the collection. A missing or corrupt file reads as empty.
func (l *FileLedger) load(ctx context.Context) []VirtualNFT {
	raw, err := l.store.Read(ctx, LedgerKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		l.logger.Warn().Err(err).Msg("nft: ledger read failed")
		return nil
	}
	var all []VirtualNFT
	if err := json.Unmarshal(raw, &all); err != nil {
		l.logger.Warn().Err(err).Msg("nft: ledger is corrupt, treating as empty")
		return nil
	}
	return all
}

func (l *FileLedger) persist(ctx context.Context, all []VirtualNFT) error {
	if all == nil {
		all = []VirtualNFT{}
	}
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	_, err = l.store.Write(ctx, LedgerKey, raw)
	return err
}

// FilterByDonor keeps the records whose donor equals address, ignoring case.
func FilterByDonor(all []VirtualNFT, address string) []VirtualNFT {
	address = strings.TrimSpace(address)
	out := make([]VirtualNFT, 0, len(all))
	for _, n := range all {
		if address == "" || strings.EqualFold(n.DonorAddress, address) {
			out = append(out, n)
		}
	}
	return out
}

func sameRecord(a, b VirtualNFT) bool {
	if a.ID == b.ID {
		return true
	}
	return a.TxHash != "" && strings.EqualFold(a.TxHash, b.TxHash)
}

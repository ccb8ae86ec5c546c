package worker

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"climatefund/internal/chain"
	"climatefund/internal/domain"
	"climatefund/internal/donation"
	"climatefund/internal/infra"
	"climatefund/internal/nft"
)

// Queue is the submission store. *repo.SubmissionRepositoryPG satisfies it.
type Queue interface {
	// Claim returns the next due submission. One that was already attempted
	// is due once retryAfter has passed since its last update.
	Claim(ctx context.Context, retryAfter time.Duration) (*domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, lastError string) error
}

// Chain is what the worker reads from the contract. *chain.Client satisfies it.
type Chain interface {
	donation.Chain
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	GetUserDonationAmount(ctx context.Context, contract common.Address, id *big.Int, user common.Address) (*big.Int, error)
}

const (
	defaultPollInterval   = 4 * time.Second
	defaultMaxAttempts    = 30
	defaultReconcileBatch = 50
)

// Worker confirms queued donation transactions and reconciles recorded NFTs
// against the contract's public per-donor totals.
type Worker struct {
	Queue           Queue
	Chain           Chain
	Ledger          nft.ReconcilingLedger
	Logger          *infra.Logger
	Metrics         *infra.Metrics
	PollInterval    time.Duration
	MaxAttempts     int
	ReconcileBatch  int
	DefaultContract common.Address
	Now             func() time.Time
}

func (w *Worker) logger() *infra.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return infra.NopLogger()
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) poll() time.Duration {
	if w.PollInterval > 0 {
		return w.PollInterval
	}
	return defaultPollInterval
}

// Run drains the queue, reconciles and then sleeps for the poll interval. A
// drain pass ends early once a submission is requeued, so a transaction that
// is not mined yet is polled at most once per interval. It returns ctx.Err()
// when ctx ends.
func (w *Worker) Run(ctx context.Context) error {
	poll := w.poll()
	w.logger().Info().Dur("poll", poll).Msg("worker: started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		for ctx.Err() == nil {
			claimed, status, err := w.process(ctx)
			if err != nil {
				w.logger().Error().Err(err).Msg("worker: failed to claim submission")
			}
			if !claimed || !status.Terminal() {
				break
			}
		}
		if n, err := w.Reconcile(ctx); err != nil {
			w.logger().Error().Err(err).Msg("worker: reconcile failed")
		} else if n > 0 {
			w.logger().Info().Int("reconciled", n).Msg("worker: nfts reconciled")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

// ProcessOne claims one submission and advances it. It reports whether a
// submission was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimed, _, err := w.process(ctx)
	return claimed, err
}

func (w *Worker) process(ctx context.Context) (bool, domain.SubmissionStatus, error) {
	if w.Queue == nil {
		return false, "", nil
	}
	sub, err := w.Queue.Claim(ctx, w.poll())
	if err != nil || sub == nil {
		return false, "", err
	}
	log := w.logger().With().Str("submission", sub.ID).Str("tx", sub.TxHash).Int("attempt", sub.Attempts).Logger()

	status, cause := w.advance(ctx, *sub)
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}
	switch status {
	case domain.SubmissionConfirmed:
		log.Info().Msg("worker: donation confirmed")
		w.Metrics.ObserveDonation("confirmed")
	case domain.SubmissionFailed:
		log.Warn().Err(cause).Msg("worker: submission failed")
		w.Metrics.ObserveDonation("failed")
	default:
		log.Debug().Err(cause).Msg("worker: submission requeued")
	}
	if err := w.Queue.UpdateStatus(ctx, sub.ID, status, lastError); err != nil {
		log.Error().Err(err).Msg("worker: update status failed")
	}
	return true, status, nil
}

func (w *Worker) advance(ctx context.Context, sub domain.Submission) (domain.SubmissionStatus, error) {
	maxAttempts := w.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	contract, err := chain.ParseAddress(sub.Contract)
	if err != nil {
		return domain.SubmissionFailed, err
	}
	hash := common.HexToHash(sub.TxHash)

	_, err = w.Chain.Receipt(ctx, hash)
	switch {
	case errors.Is(err, chain.ErrPending):
		if sub.Attempts >= maxAttempts {
			return domain.SubmissionFailed, fmt.Errorf("not mined after %d attempts", sub.Attempts)
		}
		return domain.SubmissionPending, err
	case errors.Is(err, chain.ErrReverted):
		return domain.SubmissionFailed, err
	case err != nil:
		return w.retry(sub, maxAttempts, err)
	}

	_, err = donation.RecordNFT(ctx, w.Chain, w.Ledger, contract, hash, "", sub.Message, sub.Theme, w.now())
	w.Metrics.ObserveLedgerWrite(err)
	switch {
	case err == nil:
		return domain.SubmissionConfirmed, nil
	case errors.Is(err, chain.ErrNotDonation):
		return domain.SubmissionFailed, err
	default:
		return w.retry(sub, maxAttempts, err)
	}
}

func (w *Worker) retry(sub domain.Submission, maxAttempts int, err error) (domain.SubmissionStatus, error) {
	if sub.Attempts >= maxAttempts {
		return domain.SubmissionFailed, err
	}
	return domain.SubmissionPending, err
}

// Reconcile marks NFTs whose donor's public total for the project covers the
// recorded amount. It returns the number of records marked.
func (w *Worker) Reconcile(ctx context.Context) (int, error) {
	if w.Ledger == nil {
		return 0, nil
	}
	batch := w.ReconcileBatch
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	pending, err := w.Ledger.ListUnreconciled(ctx, batch)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, n := range pending {
		ok, err := w.confirmed(ctx, n)
		if err != nil {
			w.logger().Warn().Err(err).Str("nft", n.ID).Msg("worker: reconcile check failed")
		}
		if err != nil || !ok {
			if err := w.Ledger.MarkChecked(ctx, n.ID, w.now()); err != nil {
				return marked, err
			}
			continue
		}
		if err := w.Ledger.MarkReconciled(ctx, n.ID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func (w *Worker) confirmed(ctx context.Context, n nft.VirtualNFT) (bool, error) {
	contract := w.DefaultContract
	if n.Contract != "" {
		parsed, err := chain.ParseAddress(n.Contract)
		if err != nil {
			return false, err
		}
		contract = parsed
	}
	if contract == (common.Address{}) {
		return false, errors.New("no contract recorded")
	}
	donor, err := chain.ParseAddress(n.DonorAddress)
	if err != nil {
		return false, err
	}
	projectID, err := domain.ParseBigInt(n.ProjectID)
	if err != nil {
		return false, err
	}
	total, err := w.Chain.GetUserDonationAmount(ctx, contract, projectID, donor)
	if err != nil {
		return false, err
	}
	return total.Cmp(n.AmountWei()) >= 0, nil
}

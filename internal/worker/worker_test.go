package worker

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"climatefund/internal/chain"
	"climatefund/internal/domain"
	"climatefund/internal/nft"
	"climatefund/internal/storage"
)

const (
	contractHex = "0x00000000000000000000000000000000000000c1"
	donorHex    = "0x00000000000000000000000000000000000000d2"
	txHex       = "0x00000000000000000000000000000000000000000000000000000000000000bb"
)

type statusUpdate struct {
	id        string
	status    domain.SubmissionStatus
	lastError string
}

type fakeQueue struct {
	items   []*domain.Submission
	updates []statusUpdate
	err     error
}

func (q *fakeQueue) Claim(context.Context, time.Duration) (*domain.Submission, error) {
	if q.err != nil {
		return nil, q.err
	}
	if len(q.items) == 0 {
		return nil, nil
	}
	s := q.items[0]
	q.items = q.items[1:]
	return s, nil
}

func (q *fakeQueue) UpdateStatus(_ context.Context, id string, status domain.SubmissionStatus, lastError string) error {
	q.updates = append(q.updates, statusUpdate{id, status, lastError})
	return nil
}

type fakeChain struct {
	receiptErr  error
	donation    chain.Donation
	donationErr error
	totals      map[string]*big.Int
}

func (c *fakeChain) GetProject(context.Context, common.Address, *big.Int) (domain.Project, error) {
	return domain.Project{ID: big.NewInt(1), Title: "Wetlands"}, nil
}

func (c *fakeChain) GetProjectProgress(context.Context, common.Address, *big.Int) (domain.ProjectProgress, error) {
	return domain.ProjectProgress{}, nil
}

func (c *fakeChain) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.Receipt(ctx, hash)
}

func (c *fakeChain) Receipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	if c.receiptErr != nil {
		return nil, c.receiptErr
	}
	return &types.Receipt{TxHash: hash, Status: types.ReceiptStatusSuccessful}, nil
}

func (c *fakeChain) DonationFromTx(context.Context, common.Address, common.Hash) (chain.Donation, error) {
	return c.donation, c.donationErr
}

func (c *fakeChain) GetUserDonationAmount(_ context.Context, _ common.Address, id *big.Int, user common.Address) (*big.Int, error) {
	if v, ok := c.totals[id.String()+"/"+user.Hex()]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func newLedger(t *testing.T) *nft.FileLedger {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return nft.NewFileLedger(store, nil)
}

func submission(attempts int) *domain.Submission {
	return &domain.Submission{ID: "s1", TxHash: txHex, Contract: contractHex, Message: "go", Theme: "CARBON", Attempts: attempts}
}

func newWorker(t *testing.T, q *fakeQueue, c *fakeChain) *Worker {
	return &Worker{
		Queue:       q,
		Chain:       c,
		Ledger:      newLedger(t),
		MaxAttempts: 3,
		Now:         func() time.Time { return time.Unix(2000, 0) },
	}
}

func TestProcessOneConfirms(t *testing.T) {
	q := &fakeQueue{items: []*domain.Submission{submission(1)}}
	c := &fakeChain{donation: chain.Donation{ProjectID: big.NewInt(1), Donor: common.HexToAddress(donorHex), Value: big.NewInt(1e18)}}
	w := newWorker(t, q, c)

	worked, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, worked)
	require.Equal(t, []statusUpdate{{"s1", domain.SubmissionConfirmed, ""}}, q.updates)

	items, err := w.Ledger.List(context.Background(), donorHex)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Wetlands", items[0].ProjectTitle)
	require.Equal(t, nft.ThemeCarbon, items[0].Theme)
	require.Equal(t, txHex, items[0].TxHash)
}

func TestProcessOneEmptyQueue(t *testing.T) {
	w := newWorker(t, &fakeQueue{}, &fakeChain{})
	worked, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.False(t, worked)
}

func TestProcessOneOutcomes(t *testing.T) {
	cases := []struct {
		name        string
		attempts    int
		receiptErr  error
		donationErr error
		want        domain.SubmissionStatus
	}{
		{"pending is requeued", 1, chain.ErrPending, nil, domain.SubmissionPending},
		{"pending too long fails", 3, chain.ErrPending, nil, domain.SubmissionFailed},
		{"reverted fails", 1, chain.ErrReverted, nil, domain.SubmissionFailed},
		{"rpc error is retried", 1, errors.New("timeout"), nil, domain.SubmissionPending},
		{"not a donation fails", 1, nil, chain.ErrNotDonation, domain.SubmissionFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := &fakeQueue{items: []*domain.Submission{submission(tc.attempts)}}
			c := &fakeChain{receiptErr: tc.receiptErr, donationErr: tc.donationErr}
			w := newWorker(t, q, c)
			worked, err := w.ProcessOne(context.Background())
			require.NoError(t, err)
			require.True(t, worked)
			require.Len(t, q.updates, 1)
			require.Equal(t, tc.want, q.updates[0].status)
			require.NotEmpty(t, q.updates[0].lastError)
		})
	}
}

func TestProcessOneBadContractFails(t *testing.T) {
	sub := submission(1)
	sub.Contract = "nope"
	q := &fakeQueue{items: []*domain.Submission{sub}}
	w := newWorker(t, q, &fakeChain{})
	_, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.SubmissionFailed, q.updates[0].status)
}

func TestReconcile(t *testing.T) {
	c := &fakeChain{totals: map[string]*big.Int{
		"1/" + common.HexToAddress(donorHex).Hex(): big.NewInt(500),
	}}
	w := newWorker(t, &fakeQueue{}, c)
	ctx := context.Background()
	covered := nft.Generate(nft.GenerateInput{ProjectID: big.NewInt(1), Donor: common.HexToAddress(donorHex).Hex(), AmountWei: big.NewInt(400), TxHash: "0x01", Contract: contractHex}, time.Unix(10, 0))
	uncovered := nft.Generate(nft.GenerateInput{ProjectID: big.NewInt(2), Donor: common.HexToAddress(donorHex).Hex(), AmountWei: big.NewInt(1), TxHash: "0x02", Contract: contractHex}, time.Unix(11, 0))
	require.NoError(t, w.Ledger.Save(ctx, covered))
	require.NoError(t, w.Ledger.Save(ctx, uncovered))

	n, err := w.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	left, err := w.Ledger.ListUnreconciled(ctx, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, uncovered.ID, left[0].ID)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := newWorker(t, &fakeQueue{}, &fakeChain{})
	w.PollInterval = time.Millisecond
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	require.ErrorIs(t, w.Run(ctx), context.Canceled)
}

// requeueQueue offers a submission again as soon as it is put back to
// PENDING, the way the claim query would without a retry delay.
type requeueQueue struct {
	mu         sync.Mutex
	sub        domain.Submission
	available  bool
	claims     int
	retryAfter time.Duration
}

func (q *requeueQueue) Claim(_ context.Context, retryAfter time.Duration) (*domain.Submission, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retryAfter = retryAfter
	if !q.available {
		return nil, nil
	}
	q.available = false
	q.claims++
	q.sub.Attempts++
	s := q.sub
	return &s, nil
}

func (q *requeueQueue) UpdateStatus(_ context.Context, _ string, status domain.SubmissionStatus, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sub.Status = status
	q.available = status == domain.SubmissionPending
	return nil
}

func TestRunPollsUnminedTransactionOncePerInterval(t *testing.T) {
	q := &requeueQueue{sub: *submission(0), available: true}
	w := &Worker{
		Queue:        q,
		Chain:        &fakeChain{receiptErr: chain.ErrPending},
		Ledger:       newLedger(t),
		PollInterval: 4 * time.Second,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, w.Run(ctx), context.DeadlineExceeded)

	q.mu.Lock()
	defer q.mu.Unlock()
	require.Equal(t, 1, q.claims)
	require.Equal(t, 1, q.sub.Attempts)
	require.Equal(t, domain.SubmissionPending, q.sub.Status)
	require.Equal(t, 4*time.Second, q.retryAfter)
}

func TestRunDrainsFinishedSubmissions(t *testing.T) {
	second := submission(1)
	second.ID = "s2"
	q := &fakeQueue{items: []*domain.Submission{submission(1), second}}
	c := &fakeChain{receiptErr: chain.ErrReverted}
	w := newWorker(t, q, c)
	w.PollInterval = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, w.Run(ctx), context.DeadlineExceeded)
	require.Len(t, q.updates, 2)
}

func TestReconcileReachesRecordsBehindStuckOnes(t *testing.T) {
	donor := common.HexToAddress(donorHex)
	c := &fakeChain{totals: map[string]*big.Int{"3/" + donor.Hex(): big.NewInt(10)}}
	w := newWorker(t, &fakeQueue{}, c)
	w.ReconcileBatch = 2
	ctx := context.Background()

	for i, id := range []int64{1, 2} {
		stuck := nft.Generate(nft.GenerateInput{ProjectID: big.NewInt(id), Donor: donor.Hex(), AmountWei: big.NewInt(99), TxHash: fmt.Sprintf("0x0%d", i+1), Contract: contractHex}, time.Unix(int64(10+i), 0))
		require.NoError(t, w.Ledger.Save(ctx, stuck))
	}
	good := nft.Generate(nft.GenerateInput{ProjectID: big.NewInt(3), Donor: donor.Hex(), AmountWei: big.NewInt(10), TxHash: "0x03", Contract: contractHex}, time.Unix(20, 0))
	require.NoError(t, w.Ledger.Save(ctx, good))

	n, err := w.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = w.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	left, err := w.Ledger.ListUnreconciled(ctx, 10)
	require.NoError(t, err)
	require.Len(t, left, 2)
	for _, r := range left {
		require.NotEqual(t, good.ID, r.ID)
		require.NotZero(t, r.ReconcileCheckedAt)
	}
}

package donation

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"climatefund/internal/chain"
	"climatefund/internal/domain"
	"climatefund/internal/fhe"
	"climatefund/internal/nft"
	"climatefund/internal/storage"
)

var (
	contract = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	donor    = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	txHash   = common.HexToHash("0xfeed")
	now      = time.Unix(1500, 0)
)

type fakeEncrypter struct {
	ready bool
	ct    fhe.Ciphertext
	err   error
	got   uint64
	calls int
}

func (f *fakeEncrypter) Ready() bool { return f.ready }

func (f *fakeEncrypter) EncryptUint64(_ context.Context, _, _ common.Address, v uint64) (fhe.Ciphertext, error) {
	f.calls++
	f.got = v
	return f.ct, f.err
}

type fakeWriter struct {
	err       error
	donations int
	value     *big.Int
	handle    [32]byte
	proof     []byte
	created   []string
	withdrawn int
}

func (w *fakeWriter) From() common.Address { return donor }

func (w *fakeWriter) CreateProject(_ context.Context, _ common.Address, title, _ string, _, _ *big.Int) (common.Hash, error) {
	w.created = append(w.created, title)
	return txHash, w.err
}

func (w *fakeWriter) Donate(_ context.Context, _ common.Address, _ *big.Int, handle [32]byte, proof []byte, value *big.Int) (common.Hash, error) {
	w.donations++
	w.handle, w.proof, w.value = handle, proof, value
	return txHash, w.err
}

func (w *fakeWriter) WithdrawProjectFunds(context.Context, common.Address, *big.Int) (common.Hash, error) {
	w.withdrawn++
	return txHash, w.err
}

type fakeChain struct {
	project  domain.Project
	progress domain.ProjectProgress
	mineErr  error
	donation chain.Donation
	decErr   error
}

func (c *fakeChain) GetProject(context.Context, common.Address, *big.Int) (domain.Project, error) {
	return c.project, nil
}

func (c *fakeChain) GetProjectProgress(context.Context, common.Address, *big.Int) (domain.ProjectProgress, error) {
	return c.progress, nil
}

func (c *fakeChain) WaitMined(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	if c.mineErr != nil {
		return nil, c.mineErr
	}
	return &types.Receipt{TxHash: hash, BlockNumber: big.NewInt(99), Status: types.ReceiptStatusSuccessful}, nil
}

func (c *fakeChain) DonationFromTx(context.Context, common.Address, common.Hash) (chain.Donation, error) {
	return c.donation, c.decErr
}

type memLedger struct {
	saved []nft.VirtualNFT
	err   error
}

func (l *memLedger) Save(_ context.Context, n nft.VirtualNFT) error {
	if l.err != nil {
		return l.err
	}
	l.saved = append(l.saved, n)
	return nil
}

func (l *memLedger) List(context.Context, string) ([]nft.VirtualNFT, error) { return l.saved, nil }

func openProject() domain.Project {
	return domain.Project{
		ID:               big.NewInt(1),
		Title:            "Mangroves",
		IsActive:         true,
		TargetAmount:     big.NewInt(1000),
		AuctionStartTime: big.NewInt(1000),
		AuctionEndTime:   big.NewInt(2000),
	}
}

type fixture struct {
	enc    *fakeEncrypter
	writer *fakeWriter
	chain  *fakeChain
	ledger *memLedger
	flow   *Flow
}

func newFixture() *fixture {
	value, _ := new(big.Int).SetString("100000000000000000000", 10)
	fx := &fixture{
		enc: &fakeEncrypter{ready: true, ct: fhe.Ciphertext{
			Handles:    []fhe.Encoded{fhe.HexString("0x" + strings.Repeat("11", 32))},
			InputProof: fhe.Bytes([]byte{9, 9}),
		}},
		writer: &fakeWriter{},
		chain: &fakeChain{
			project:  openProject(),
			donation: chain.Donation{ProjectID: big.NewInt(1), Donor: donor, Value: value},
		},
		ledger: &memLedger{},
	}
	fx.flow = &Flow{
		Encrypter: fx.enc,
		Writer:    fx.writer,
		Chain:     fx.chain,
		Ledger:    fx.ledger,
		Now:       func() time.Time { return now },
	}
	return fx
}

func request() Request {
	return Request{Contract: contract, ProjectID: big.NewInt(1), AmountWei: big.NewInt(5_000_000_000_000_000), Message: "for the coast", Theme: "ocean"}
}

func TestSubmitHappyPath(t *testing.T) {
	fx := newFixture()
	res, err := fx.flow.Submit(context.Background(), request())
	require.NoError(t, err)
	require.Equal(t, txHash, res.TxHash)
	require.Equal(t, uint64(99), res.BlockNumber)
	require.True(t, res.NFTSaved)

	require.Equal(t, uint64(5_000_000_000_000_000), fx.enc.got)
	require.Equal(t, byte(0x11), fx.writer.handle[0])
	require.Equal(t, []byte{9, 9}, fx.writer.proof)
	require.Equal(t, "5000000000000000", fx.writer.value.String())

	require.Len(t, fx.ledger.saved, 1)
	n := fx.ledger.saved[0]
	require.Equal(t, "Mangroves", n.ProjectTitle)
	require.Equal(t, donor.Hex(), n.DonorAddress)
	require.Equal(t, "100000000000000000000", n.DonationAmount, "amount comes from the transaction")
	require.Equal(t, nft.Gold, n.Tier)
	require.Equal(t, nft.ThemeOcean, n.Theme)
	require.Equal(t, "1-"+donor.Hex()+"-1500000", n.ID)
}

func TestSubmitFHEUnavailable(t *testing.T) {
	fx := newFixture()
	fx.enc.ready = false
	_, err := fx.flow.Submit(context.Background(), request())
	require.ErrorIs(t, err, ErrFHEUnavailable)
	require.Zero(t, fx.writer.donations)
}

func TestSubmitEncryptionFailureIsNotRetried(t *testing.T) {
	fx := newFixture()
	fx.enc.err = errors.New("relayer down")
	_, err := fx.flow.Submit(context.Background(), request())
	require.ErrorIs(t, err, ErrEncryption)
	require.Equal(t, 1, fx.enc.calls)
	require.Zero(t, fx.writer.donations)
	require.Equal(t, "Encryption failed: relayer down", UserMessage(err))
}

func TestSubmitRejectsMalformedHandle(t *testing.T) {
	fx := newFixture()
	fx.enc.ct.Handles = []fhe.Encoded{fhe.HexString("0x1234")}
	_, err := fx.flow.Submit(context.Background(), request())
	require.ErrorIs(t, err, ErrEncryption)
	require.Zero(t, fx.writer.donations)
}

func TestSubmitAmountAboveUint64(t *testing.T) {
	fx := newFixture()
	req := request()
	req.AmountWei = new(big.Int).Lsh(big.NewInt(1), 64)
	_, err := fx.flow.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrEncryption)
	require.ErrorIs(t, err, fhe.ErrAmountRange)
	require.Zero(t, fx.enc.calls)
}

func TestSubmitTransactionRejected(t *testing.T) {
	fx := newFixture()
	fx.writer.err = errors.New("user rejected")
	_, err := fx.flow.Submit(context.Background(), request())
	require.ErrorIs(t, err, ErrTransaction)
	require.Equal(t, 1, fx.writer.donations)
	require.Equal(t, "Donation failed: user rejected", UserMessage(err))
}

func TestSubmitReverted(t *testing.T) {
	fx := newFixture()
	fx.chain.mineErr = chain.ErrReverted
	res, err := fx.flow.Submit(context.Background(), request())
	require.ErrorIs(t, err, ErrReverted)
	require.Equal(t, txHash, res.TxHash)
	require.Empty(t, fx.ledger.saved)
}

func TestSubmitLedgerFailureDoesNotFailDonation(t *testing.T) {
	fx := newFixture()
	fx.ledger.err = errors.New("disk full")
	res, err := fx.flow.Submit(context.Background(), request())
	require.NoError(t, err)
	require.False(t, res.NFTSaved)
	require.Nil(t, res.NFT)
}

func TestSubmitGuards(t *testing.T) {
	fx := newFixture()
	req := request()
	req.AmountWei = big.NewInt(0)
	_, err := fx.flow.Submit(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	require.Equal(t, "Please enter a valid donation amount", UserMessage(err))

	req = request()
	req.Message = strings.Repeat("x", MaxMessageLength+1)
	_, err = fx.flow.Submit(context.Background(), req)
	require.True(t, domain.IsValidation(err))

	fx.chain.project.IsActive = false
	_, err = fx.flow.Submit(context.Background(), request())
	require.ErrorIs(t, err, domain.ErrDonationClosed)

	fx.chain.project = domain.Project{ID: big.NewInt(0)}
	_, err = fx.flow.Submit(context.Background(), request())
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Zero(t, fx.enc.calls)
}

func TestCreateProject(t *testing.T) {
	fx := newFixture()
	in := domain.CreateProjectInput{Title: "  Solar  ", Description: "Panels", TargetAmountWei: big.NewInt(10), DurationDays: 30}
	hash, err := fx.flow.CreateProject(context.Background(), contract, in)
	require.NoError(t, err)
	require.Equal(t, txHash, hash)
	require.Equal(t, []string{"Solar"}, fx.writer.created)

	in.DurationDays = 0
	_, err = fx.flow.CreateProject(context.Background(), contract, in)
	require.True(t, domain.IsValidation(err))
	require.Len(t, fx.writer.created, 1)
}

func TestWithdraw(t *testing.T) {
	fx := newFixture()
	fx.chain.progress = domain.ProjectProgress{CurrentAmount: big.NewInt(10)}
	_, err := fx.flow.Withdraw(context.Background(), contract, big.NewInt(1))
	require.ErrorIs(t, err, domain.ErrWithdrawNotAllowed)
	require.Zero(t, fx.writer.withdrawn)

	fx.chain.progress = domain.ProjectProgress{CurrentAmount: big.NewInt(1000)}
	_, err = fx.flow.Withdraw(context.Background(), contract, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, 1, fx.writer.withdrawn)
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "", UserMessage(nil))
	require.Equal(t, "FHE environment not ready, please try again later", UserMessage(ErrFHEUnavailable))
	require.Equal(t, "Transaction reverted by the contract", UserMessage(wrap(ErrReverted, chain.ErrReverted)))
	require.Equal(t, "Project not found", UserMessage(domain.ErrNotFound))
	require.Equal(t, "boom", UserMessage(errors.New("boom")))
}

func TestRecordNFTKeepsExistingRecord(t *testing.T) {
	fx := newFixture()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ledger := nft.NewFileLedger(store, nil)
	ctx := context.Background()

	first, err := RecordNFT(ctx, fx.chain, ledger, contract, txHash, "", "in memory of grandma", "OCEAN", now)
	require.NoError(t, err)
	require.NoError(t, ledger.MarkReconciled(ctx, first.ID))

	again, err := RecordNFT(ctx, fx.chain, ledger, contract, txHash, "", "spam", "CARBON", now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, first.Timestamp, again.Timestamp)
	require.Equal(t, "in memory of grandma", again.Message)
	require.Equal(t, nft.ThemeOcean, again.Theme)
	require.True(t, again.Reconciled)

	all, err := ledger.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

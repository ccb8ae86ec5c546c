package donation

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"climatefund/internal/chain"
	"climatefund/internal/domain"
	"climatefund/internal/fhe"
	"climatefund/internal/infra"
	"climatefund/internal/nft"
)

// Encrypter turns a plaintext amount into a ciphertext handle and proof.
// *fhe.Session satisfies it.
type Encrypter interface {
	Ready() bool
	EncryptUint64(ctx context.Context, contract, user common.Address, v uint64) (fhe.Ciphertext, error)
}

// Writer sends contract transactions. *chain.Transactor satisfies it.
type Writer interface {
	From() common.Address
	CreateProject(ctx context.Context, contract common.Address, title, description string, target, duration *big.Int) (common.Hash, error)
	Donate(ctx context.Context, contract common.Address, projectID *big.Int, handle [32]byte, proof []byte, value *big.Int) (common.Hash, error)
	WithdrawProjectFunds(ctx context.Context, contract common.Address, projectID *big.Int) (common.Hash, error)
}

// Chain reads contract state and transaction outcomes. *chain.Client
// satisfies it.
type Chain interface {
	GetProject(ctx context.Context, contract common.Address, id *big.Int) (domain.Project, error)
	GetProjectProgress(ctx context.Context, contract common.Address, id *big.Int) (domain.ProjectProgress, error)
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	DonationFromTx(ctx context.Context, contract common.Address, hash common.Hash) (chain.Donation, error)
}

// Flow runs the write paths: create, donate and withdraw.
type Flow struct {
	Encrypter Encrypter
	Writer    Writer
	Chain     Chain
	Ledger    nft.Ledger
	Now       func() time.Time
	Logger    *infra.Logger
	Metrics   *infra.Metrics
}

// Request is one donation.
type Request struct {
	Contract  common.Address
	ProjectID *big.Int
	AmountWei *big.Int
	Message   string
	Theme     string
}

// Result describes a confirmed donation.
type Result struct {
	TxHash      common.Hash
	BlockNumber uint64
	NFT         *nft.VirtualNFT
	NFTSaved    bool
}

func (f *Flow) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Flow) logger() *infra.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return infra.NopLogger()
}

// Submit encrypts the amount, sends the donation with the amount attached as
// value, waits for it to be mined and records the virtual NFT. Nothing is
// retried; the NFT write is best-effort.
func (f *Flow) Submit(ctx context.Context, req Request) (Result, error) {
	res, err := f.submit(ctx, req)
	status := "confirmed"
	switch {
	case err == nil:
	case errors.Is(err, ErrReverted):
		status = "reverted"
	default:
		status = "failed"
	}
	f.Metrics.ObserveDonation(status)
	return res, err
}

func (f *Flow) submit(ctx context.Context, req Request) (Result, error) {
	if req.ProjectID == nil || req.ProjectID.Sign() <= 0 {
		return Result{}, domain.ErrInvalidProjectID
	}
	if req.AmountWei == nil || req.AmountWei.Sign() <= 0 {
		return Result{}, domain.ErrInvalidAmount
	}
	if utf8.RuneCountInString(req.Message) > MaxMessageLength {
		return Result{}, &domain.ValidationError{Field: "message", Message: fmt.Sprintf("Message must be at most %d characters", MaxMessageLength)}
	}

	project, err := f.Chain.GetProject(ctx, req.Contract, req.ProjectID)
	if err != nil {
		return Result{}, err
	}
	if !project.Exists() {
		return Result{}, domain.ErrNotFound
	}
	if !domain.CanDonate(project, f.now()) {
		return Result{}, domain.ErrDonationClosed
	}

	if f.Encrypter == nil || !f.Encrypter.Ready() {
		return Result{}, ErrFHEUnavailable
	}
	amount, err := fhe.AmountToUint64(req.AmountWei)
	if err != nil {
		return Result{}, wrap(ErrEncryption, err)
	}
	donor := f.Writer.From()
	ct, err := f.Encrypter.EncryptUint64(ctx, req.Contract, donor, amount)
	if err != nil {
		return Result{}, wrap(ErrEncryption, err)
	}
	if len(ct.Handles) == 0 {
		return Result{}, wrap(ErrEncryption, errors.New("relayer returned no handle"))
	}
	handle, err := ct.Handles[0].Bytes32()
	if err != nil {
		return Result{}, wrap(ErrEncryption, err)
	}
	proof, err := ct.InputProof.Decode()
	if err != nil {
		return Result{}, wrap(ErrEncryption, err)
	}
	f.logger().Debug().
		Str("handle", fhe.ToHex(ct.Handles[0])).
		Int("proof_bytes", len(proof)).
		Msg("donation: amount encrypted")

	hash, err := f.Writer.Donate(ctx, req.Contract, req.ProjectID, handle, proof, req.AmountWei)
	if err != nil {
		return Result{}, wrap(ErrTransaction, err)
	}
	rcpt, err := f.Chain.WaitMined(ctx, hash)
	if errors.Is(err, chain.ErrReverted) {
		return Result{TxHash: hash}, wrap(ErrReverted, err)
	}
	if err != nil {
		return Result{TxHash: hash}, wrap(ErrTransaction, err)
	}
	res := Result{TxHash: hash}
	if rcpt != nil && rcpt.BlockNumber != nil {
		res.BlockNumber = rcpt.BlockNumber.Uint64()
	}
	f.logger().Info().
		Str("tx", hash.Hex()).
		Str("project", req.ProjectID.String()).
		Uint64("block", res.BlockNumber).
		Msg("donation: confirmed")

	n, err := RecordNFT(ctx, f.Chain, f.Ledger, req.Contract, hash, project.Title, req.Message, req.Theme, f.now())
	if err != nil {
		f.logger().Warn().Err(err).Str("tx", hash.Hex()).Msg("donation: virtual nft not recorded")
		return res, nil
	}
	res.NFT = &n
	res.NFTSaved = true
	return res, nil
}

// RecordNFT derives the virtual NFT of a mined donation from the chain and
// saves it. The donor and amount come from the transaction, never from the
// caller. When the transaction already has a record, that stored record is
// returned unchanged.
func RecordNFT(ctx context.Context, c Chain, ledger nft.Ledger, contract common.Address, hash common.Hash, title, message, theme string, now time.Time) (nft.VirtualNFT, error) {
	d, err := c.DonationFromTx(ctx, contract, hash)
	if err != nil {
		return nft.VirtualNFT{}, err
	}
	if title == "" {
		if p, err := c.GetProject(ctx, contract, d.ProjectID); err == nil {
			title = p.Title
		}
	}
	n := nft.Generate(nft.GenerateInput{
		ProjectID:    d.ProjectID,
		ProjectTitle: title,
		Donor:        d.Donor.Hex(),
		AmountWei:    d.Value,
		Message:      message,
		Theme:        theme,
		TxHash:       hash.Hex(),
		Contract:     contract.Hex(),
	}, now)
	if ledger == nil {
		return n, errors.New("donation: no ledger configured")
	}
	if err := ledger.Save(ctx, n); err != nil {
		return n, fmt.Errorf("donation: save nft: %w", err)
	}
	stored, err := ledger.List(ctx, n.DonorAddress)
	if err != nil {
		return n, nil
	}
	for _, existing := range stored {
		if strings.EqualFold(existing.TxHash, n.TxHash) {
			return existing, nil
		}
	}
	return n, nil
}

// CreateProject validates the input and sends createProject.
func (f *Flow) CreateProject(ctx context.Context, contract common.Address, in domain.CreateProjectInput) (common.Hash, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := in.Validate(); err != nil {
		return common.Hash{}, err
	}
	hash, err := f.Writer.CreateProject(ctx, contract, in.Title, in.Description, in.TargetAmountWei, in.DurationSeconds())
	if err != nil {
		return common.Hash{}, wrap(ErrTransaction, err)
	}
	if _, err := f.Chain.WaitMined(ctx, hash); err != nil {
		if errors.Is(err, chain.ErrReverted) {
			return hash, wrap(ErrReverted, err)
		}
		return hash, wrap(ErrTransaction, err)
	}
	f.logger().Info().Str("tx", hash.Hex()).Str("title", in.Title).Msg("donation: project created")
	return hash, nil
}

// Withdraw checks a fresh read of the project and sends withdrawProjectFunds.
func (f *Flow) Withdraw(ctx context.Context, contract common.Address, projectID *big.Int) (common.Hash, error) {
	if projectID == nil || projectID.Sign() <= 0 {
		return common.Hash{}, domain.ErrInvalidProjectID
	}
	project, err := f.Chain.GetProject(ctx, contract, projectID)
	if err != nil {
		return common.Hash{}, err
	}
	if !project.Exists() {
		return common.Hash{}, domain.ErrNotFound
	}
	progress, err := f.Chain.GetProjectProgress(ctx, contract, projectID)
	if err != nil {
		return common.Hash{}, err
	}
	if !domain.CanWithdraw(project, progress.CurrentAmount, f.now()) {
		return common.Hash{}, domain.ErrWithdrawNotAllowed
	}
	hash, err := f.Writer.WithdrawProjectFunds(ctx, contract, projectID)
	if err != nil {
		return common.Hash{}, wrap(ErrTransaction, err)
	}
	if _, err := f.Chain.WaitMined(ctx, hash); err != nil {
		if errors.Is(err, chain.ErrReverted) {
			return hash, wrap(ErrReverted, err)
		}
		return hash, wrap(ErrTransaction, err)
	}
	return hash, nil
}

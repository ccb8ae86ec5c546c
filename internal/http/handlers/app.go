package handlers

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"climatefund/internal/chain"
	"climatefund/internal/domain"
	"climatefund/internal/fhe"
	"climatefund/internal/infra"
	"climatefund/internal/ipfs"
	"climatefund/internal/nft"
)

// ContractReader is the read side of the contract client. *chain.Client
// satisfies it.
type ContractReader interface {
	GetProject(ctx context.Context, contract common.Address, id *big.Int) (domain.Project, error)
	GetProjectProgress(ctx context.Context, contract common.Address, id *big.Int) (domain.ProjectProgress, error)
	GetPlatformStats(ctx context.Context, contract common.Address) (domain.PlatformStats, error)
	GetActiveProjects(ctx context.Context, contract common.Address) ([]*big.Int, error)
	GetAllProjects(ctx context.Context, contract common.Address) ([]*big.Int, error)
	GetUserParticipation(ctx context.Context, contract, user common.Address) (domain.UserParticipation, error)
	ListProjects(ctx context.Context, contract common.Address, ids []*big.Int, relationTo *common.Address) ([]domain.ProjectWithRelation, error)
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	DonationFromTx(ctx context.Context, contract common.Address, hash common.Hash) (chain.Donation, error)
}

// SubmissionStore queues donation transactions for the worker.
type SubmissionStore interface {
	Enqueue(ctx context.Context, s domain.Submission) (domain.Submission, error)
	GetByTx(ctx context.Context, txHash string) (*domain.Submission, error)
}

// SessionStatus reports the encryption session. *fhe.Session satisfies it.
type SessionStatus interface {
	Status() fhe.Status
}

// MetadataPinner publishes NFT metadata. *ipfs.Client satisfies it.
type MetadataPinner interface {
	PinJSON(ctx context.Context, m ipfs.Metadata) (string, error)
}

type App struct {
	Chain           ContractReader
	Ledger          nft.Ledger
	Submissions     SubmissionStore
	FHE             SessionStatus
	Pinner          MetadataPinner
	Metrics         *infra.Metrics
	Logger          *infra.Logger
	DefaultContract string
	Now             func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *infra.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return infra.NopLogger()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// error writes {error, details?}. details carries the underlying cause of
// server-side failures.
func (a *App) error(w http.ResponseWriter, code int, message string, cause error) {
	body := errorBody{Error: message}
	if cause != nil {
		body.Details = cause.Error()
	}
	a.json(w, code, body)
}

// contractParam reads ?contract= and falls back to the configured deployment
// when allowDefault is set.
func (a *App) contractParam(r *http.Request, allowDefault bool) (common.Address, bool) {
	raw := r.URL.Query().Get("contract")
	if raw == "" && allowDefault {
		raw = a.DefaultContract
	}
	addr, err := chain.ParseAddress(raw)
	if err != nil {
		return common.Address{}, false
	}
	return addr, true
}

package handlers

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"climatefund/internal/chain"
	"climatefund/internal/domain"
)

// projectIDParam parses the {id} segment. Zero and non-numeric ids are
// rejected.
func projectIDParam(r *http.Request) (*big.Int, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() <= 0 {
		return nil, false
	}
	return id, true
}

// Project returns the 13-element projects(uint256) tuple.
func (a *App) Project(w http.ResponseWriter, r *http.Request) {
	contract, okContract := a.contractParam(r, false)
	id, okID := projectIDParam(r)
	if !okContract || !okID {
		a.error(w, http.StatusBadRequest, "Missing parameters", nil)
		return
	}
	project, err := a.Chain.GetProject(r.Context(), contract, id)
	if err != nil {
		a.logger().Error().Err(err).Str("project", id.String()).Msg("project read failed")
		a.error(w, http.StatusInternalServerError, "Failed to fetch project data", err)
		return
	}
	if !project.Exists() {
		a.error(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	a.json(w, http.StatusOK, project.Tuple())
}

// ProjectProgress returns getProjectProgress as decimal strings.
func (a *App) ProjectProgress(w http.ResponseWriter, r *http.Request) {
	contract, okContract := a.contractParam(r, false)
	id, okID := projectIDParam(r)
	if !okContract || !okID {
		a.error(w, http.StatusBadRequest, "Missing parameters", nil)
		return
	}
	progress, err := a.Chain.GetProjectProgress(r.Context(), contract, id)
	if err != nil {
		a.logger().Error().Err(err).Str("project", id.String()).Msg("project progress read failed")
		a.error(w, http.StatusInternalServerError, "Failed to fetch project progress", err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{
		"currentAmount": decimal(progress.CurrentAmount),
		"targetAmount":  decimal(progress.TargetAmount),
		"donorCount":    decimal(progress.DonorCount),
	})
}

type projectView struct {
	ID                      string `json:"id"`
	Title                   string `json:"title"`
	Description             string `json:"description"`
	Beneficiary             string `json:"beneficiary"`
	TargetAmount            string `json:"targetAmount"`
	AuctionStartTime        string `json:"auctionStartTime"`
	AuctionEndTime          string `json:"auctionEndTime"`
	IsActive                bool   `json:"isActive"`
	IsCompleted             bool   `json:"isCompleted"`
	FundsWithdrawn          bool   `json:"fundsWithdrawn"`
	TotalDonationsEncrypted string `json:"totalDonationsEncrypted"`
	DonorCount              string `json:"donorCount"`
	TotalDonationsPublic    string `json:"totalDonationsPublic"`
	Progress                int    `json:"progress"`
	Status                  string `json:"status"`
	TimeRemaining           string `json:"timeRemaining"`
	CanDonate               bool   `json:"canDonate"`
	IsCreator               bool   `json:"isCreator,omitempty"`
	IsDonor                 bool   `json:"isDonor,omitempty"`
	CreatorStatus           string `json:"creatorStatus,omitempty"`
}

func (a *App) view(p domain.ProjectWithRelation) projectView {
	now := a.now()
	expired := domain.IsExpired(p.Project, now)
	progress := domain.CalculateProgress(p.TotalDonationsPublic, p.TargetAmount)
	v := projectView{
		ID:                      decimal(p.ID),
		Title:                   p.Title,
		Description:             p.Description,
		Beneficiary:             p.Beneficiary,
		TargetAmount:            decimal(p.TargetAmount),
		AuctionStartTime:        decimal(p.AuctionStartTime),
		AuctionEndTime:          decimal(p.AuctionEndTime),
		IsActive:                p.IsActive,
		IsCompleted:             p.IsCompleted,
		FundsWithdrawn:          p.FundsWithdrawn,
		TotalDonationsEncrypted: domain.HandleHex(p.TotalDonationsEncrypted),
		DonorCount:              decimal(p.DonorCount),
		TotalDonationsPublic:    decimal(p.TotalDonationsPublic),
		Progress:                progress,
		Status:                  domain.ProjectStatus(p.Project, expired),
		TimeRemaining:           domain.TimeRemaining(p.AuctionEndTime, now),
		CanDonate:               domain.CanDonate(p.Project, now),
		IsCreator:               p.IsCreator,
		IsDonor:                 p.IsDonor,
	}
	if p.IsCreator {
		v.CreatorStatus = domain.CreatorStatus(p.Project, progress, expired)
	}
	return v
}

// Projects lists the deployment's projects. scope=all includes inactive ones;
// the default is active.
func (a *App) Projects(w http.ResponseWriter, r *http.Request) {
	contract, ok := a.contractParam(r, true)
	if !ok {
		a.error(w, http.StatusBadRequest, "Missing parameters", nil)
		return
	}
	ctx := r.Context()
	var (
		ids []*big.Int
		err error
	)
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "active":
		ids, err = a.Chain.GetActiveProjects(ctx, contract)
	case "all":
		ids, err = a.Chain.GetAllProjects(ctx, contract)
	default:
		a.error(w, http.StatusBadRequest, "Invalid scope", nil)
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to fetch projects", err)
		return
	}
	var viewer *common.Address
	if raw := r.URL.Query().Get("viewer"); raw != "" {
		addr, err := chain.ParseAddress(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "Invalid address", err)
			return
		}
		viewer = &addr
	}
	projects, err := a.Chain.ListProjects(ctx, contract, ids, viewer)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to fetch projects", err)
		return
	}
	items := make([]projectView, 0, len(projects))
	for _, p := range projects {
		items = append(items, a.view(p))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// UserProjects returns the projects an address created and donated to.
func (a *App) UserProjects(w http.ResponseWriter, r *http.Request) {
	contract, okContract := a.contractParam(r, true)
	user, err := chain.ParseAddress(chi.URLParam(r, "address"))
	if !okContract || err != nil {
		a.error(w, http.StatusBadRequest, "Missing parameters", nil)
		return
	}
	ctx := r.Context()
	part, err := a.Chain.GetUserParticipation(ctx, contract, user)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to fetch user projects", err)
		return
	}
	created, err := a.Chain.ListProjects(ctx, contract, part.CreatedProjects, &user)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to fetch user projects", err)
		return
	}
	donated, err := a.Chain.ListProjects(ctx, contract, part.DonatedProjects, &user)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to fetch user projects", err)
		return
	}
	toViews := func(in []domain.ProjectWithRelation) []projectView {
		out := make([]projectView, 0, len(in))
		for _, p := range in {
			out = append(out, a.view(p))
		}
		return out
	}
	a.json(w, http.StatusOK, map[string]any{
		"address": user.Hex(),
		"created": toViews(created),
		"donated": toViews(donated),
	})
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

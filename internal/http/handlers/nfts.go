package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"climatefund/internal/chain"
	"climatefund/internal/domain"
	"climatefund/internal/donation"
	"climatefund/internal/ipfs"
	"climatefund/internal/middleware"
	"climatefund/internal/nft"
	"climatefund/pkg/zip"
)

const maxNFTRequestBytes = 8 << 10

func (a *App) addressParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	addr, err := chain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "Invalid address", nil)
		return "", false
	}
	return addr.Hex(), true
}

func (a *App) listNFTs(w http.ResponseWriter, r *http.Request) ([]nft.VirtualNFT, bool) {
	if a.Ledger == nil {
		a.error(w, http.StatusServiceUnavailable, "NFT ledger not configured", nil)
		return nil, false
	}
	addr, ok := a.addressParam(w, r)
	if !ok {
		return nil, false
	}
	items, err := a.Ledger.List(r.Context(), addr)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to load NFTs", err)
		return nil, false
	}
	return items, true
}

// NFTs lists the virtual NFTs of an address with their localized cards.
func (a *App) NFTs(w http.ResponseWriter, r *http.Request) {
	items, ok := a.listNFTs(w, r)
	if !ok {
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	type entry struct {
		nft.VirtualNFT
		Card nft.Card `json:"card"`
	}
	out := make([]entry, 0, len(items))
	for _, n := range items {
		out = append(out, entry{VirtualNFT: n, Card: nft.CardData(n, locale)})
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

// NFTStats summarizes the collection of an address.
func (a *App) NFTStats(w http.ResponseWriter, r *http.Request) {
	items, ok := a.listNFTs(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, nft.ComputeStats(items))
}

// ExportNFTs downloads the collection as a zip of metadata documents plus a
// stats summary.
func (a *App) ExportNFTs(w http.ResponseWriter, r *http.Request) {
	items, ok := a.listNFTs(w, r)
	if !ok {
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	entries := make([]zip.Entry, 0, len(items)+1)
	summary, err := json.MarshalIndent(nft.ComputeStats(items), "", "  ")
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to export NFTs", err)
		return
	}
	entries = append(entries, zip.Entry{Name: "collection.json", Data: summary, Modified: a.now()})
	for i, n := range items {
		doc, err := json.MarshalIndent(ipfs.FromNFT(n, locale), "", "  ")
		if err != nil {
			a.error(w, http.StatusInternalServerError, "Failed to export NFTs", err)
			return
		}
		entries = append(entries, zip.Entry{
			Name:     fmt.Sprintf("nfts/%03d-project-%s.json", i+1, n.ProjectID),
			Data:     doc,
			Modified: time.UnixMilli(n.Timestamp),
		})
	}
	raw, err := zip.Archive(entries)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to export NFTs", err)
		return
	}
	addr := strings.ToLower(chi.URLParam(r, "address"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="climate-nfts-%s.zip"`, addr))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

type recordNFTRequest struct {
	TxHash   string `json:"txHash"`
	Contract string `json:"contract"`
	Message  string `json:"message"`
	Theme    string `json:"theme"`
}

// RecordNFT registers the virtual NFT of a donation transaction. The record is
// derived from the transaction itself; a transaction that is not mined yet is
// queued for the worker when a submission store is configured.
func (a *App) RecordNFT(w http.ResponseWriter, r *http.Request) {
	var req recordNFTRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxNFTRequestBytes)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid payload", err)
		return
	}
	hash, ok := parseTxHash(req.TxHash)
	if !ok {
		a.error(w, http.StatusBadRequest, "Missing parameters", nil)
		return
	}
	if req.Contract == "" {
		req.Contract = a.DefaultContract
	}
	contract, err := chain.ParseAddress(req.Contract)
	if err != nil {
		a.error(w, http.StatusBadRequest, "Missing parameters", nil)
		return
	}
	if len([]rune(req.Message)) > donation.MaxMessageLength {
		a.error(w, http.StatusBadRequest, fmt.Sprintf("Message must be at most %d characters", donation.MaxMessageLength), nil)
		return
	}
	if a.Ledger == nil {
		a.error(w, http.StatusServiceUnavailable, "NFT ledger not configured", nil)
		return
	}

	ctx := r.Context()
	_, err = a.Chain.Receipt(ctx, hash)
	switch {
	case errors.Is(err, chain.ErrPending):
		a.queue(w, r, req, hash, contract)
		return
	case errors.Is(err, chain.ErrReverted):
		a.error(w, http.StatusUnprocessableEntity, "Transaction reverted by the contract", nil)
		return
	case err != nil:
		a.error(w, http.StatusBadGateway, "Failed to fetch transaction", err)
		return
	}

	n, err := donation.RecordNFT(ctx, a.Chain, a.Ledger, contract, hash, "", req.Message, req.Theme, a.now())
	switch {
	case errors.Is(err, chain.ErrNotDonation):
		a.error(w, http.StatusUnprocessableEntity, "Transaction is not a donation", nil)
		return
	case err != nil:
		a.Metrics.ObserveLedgerWrite(err)
		a.error(w, http.StatusInternalServerError, "Failed to record NFT", err)
		return
	}
	a.Metrics.ObserveLedgerWrite(nil)
	locale := middleware.LocaleFromContext(ctx)
	body := map[string]any{
		"status": domain.SubmissionConfirmed,
		"nft":    n,
		"card":   nft.CardData(n, locale),
	}
	if a.Pinner != nil {
		cid, err := a.Pinner.PinJSON(ctx, ipfs.FromNFT(n, locale))
		if err != nil {
			a.logger().Warn().Err(err).Str("nft", n.ID).Msg("metadata pin failed")
		} else {
			body["metadata"] = map[string]string{"ipfsHash": cid, "url": ipfs.GatewayURL(cid)}
		}
	}
	a.json(w, http.StatusCreated, body)
}

func (a *App) queue(w http.ResponseWriter, r *http.Request, req recordNFTRequest, hash common.Hash, contract common.Address) {
	if a.Submissions == nil {
		a.json(w, http.StatusAccepted, map[string]any{"status": domain.SubmissionPending, "txHash": hash.Hex()})
		return
	}
	sub, err := a.Submissions.Enqueue(r.Context(), domain.Submission{
		TxHash:   hash.Hex(),
		Contract: contract.Hex(),
		Message:  strings.TrimSpace(req.Message),
		Theme:    string(nft.ParseTheme(req.Theme)),
	})
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to queue submission", err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{"status": sub.Status, "id": sub.ID, "txHash": sub.TxHash})
}

// Submission reports the worker status of a queued transaction.
func (a *App) Submission(w http.ResponseWriter, r *http.Request) {
	if a.Submissions == nil {
		a.error(w, http.StatusServiceUnavailable, "Submission queue not configured", nil)
		return
	}
	hash, ok := parseTxHash(chi.URLParam(r, "txHash"))
	if !ok {
		a.error(w, http.StatusBadRequest, "Missing parameters", nil)
		return
	}
	sub, err := a.Submissions.GetByTx(r.Context(), strings.ToLower(hash.Hex()))
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "Submission not found", nil)
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to load submission", err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":        sub.ID,
		"txHash":    sub.TxHash,
		"status":    sub.Status,
		"attempts":  sub.Attempts,
		"lastError": sub.LastError,
	})
}

func parseTxHash(raw string) (common.Hash, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 66 || !strings.HasPrefix(raw, "0x") {
		return common.Hash{}, false
	}
	for _, c := range raw[2:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return common.Hash{}, false
		}
	}
	return common.HexToHash(raw), true
}

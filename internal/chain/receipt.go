package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Donation is a confirmed donate call recovered from the chain.
type Donation struct {
	TxHash      common.Hash
	Contract    common.Address
	ProjectID   *big.Int
	Donor       common.Address
	Value       *big.Int
	BlockNumber uint64
}

// Receipt returns the receipt of a mined transaction, ErrPending while the
// transaction is unmined, or ErrReverted (with the receipt) on failure.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	rcpt, err := c.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, ErrPending
	}
	if err != nil {
		return nil, fmt.Errorf("chain: receipt %s: %w", hash.Hex(), err)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return rcpt, ErrReverted
	}
	return rcpt, nil
}

// WaitMined polls until the transaction is mined or ctx ends.
func (c *Client) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		rcpt, err := c.Receipt(ctx, hash)
		if !errors.Is(err, ErrPending) {
			return rcpt, err
		}
		c.logger.Debug().Str("tx", hash.Hex()).Msg("chain: waiting for receipt")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// DonationFromTx loads a transaction and its receipt and decodes the donation.
func (c *Client) DonationFromTx(ctx context.Context, contract common.Address, hash common.Hash) (Donation, error) {
	tx, pending, err := c.backend.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return Donation{}, fmt.Errorf("chain: transaction %s: %w", hash.Hex(), ethereum.NotFound)
	}
	if err != nil {
		return Donation{}, fmt.Errorf("chain: transaction %s: %w", hash.Hex(), err)
	}
	if pending {
		return Donation{}, ErrPending
	}
	rcpt, err := c.Receipt(ctx, hash)
	if err != nil {
		return Donation{}, err
	}
	return DecodeDonation(contract, tx, rcpt)
}

// DecodeDonation recovers the project id from the donate calldata and the
// donor from the DonationMade event. The transaction sender is used when the
// event is absent.
func DecodeDonation(contract common.Address, tx *types.Transaction, rcpt *types.Receipt) (Donation, error) {
	if tx == nil || rcpt == nil {
		return Donation{}, ErrNotDonation
	}
	if tx.To() == nil || *tx.To() != contract {
		return Donation{}, ErrNotDonation
	}
	data := tx.Data()
	if len(data) < 4 {
		return Donation{}, ErrNotDonation
	}
	method, err := contractABI.MethodById(data[:4])
	if err != nil || method.Name != "donate" {
		return Donation{}, ErrNotDonation
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil || len(args) == 0 {
		return Donation{}, fmt.Errorf("chain: decode donate calldata: %w", errors.Join(ErrNotDonation, err))
	}
	projectID, ok := args[0].(*big.Int)
	if !ok {
		return Donation{}, fmt.Errorf("chain: donate projectId has type %T", args[0])
	}

	d := Donation{
		TxHash:    tx.Hash(),
		Contract:  contract,
		ProjectID: projectID,
		Value:     new(big.Int).Set(tx.Value()),
	}
	if rcpt.BlockNumber != nil {
		d.BlockNumber = rcpt.BlockNumber.Uint64()
	}
	if donor, found := donorFromLogs(contract, rcpt.Logs); found {
		d.Donor = donor
		return d, nil
	}
	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return Donation{}, fmt.Errorf("chain: recover sender: %w", err)
	}
	d.Donor = sender
	return d, nil
}

func donorFromLogs(contract common.Address, logs []*types.Log) (common.Address, bool) {
	event, ok := contractABI.Events["DonationMade"]
	if !ok {
		return common.Address{}, false
	}
	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) < 3 {
			continue
		}
		if l.Topics[0] != event.ID {
			continue
		}
		return common.BytesToAddress(l.Topics[2].Bytes()), true
	}
	return common.Address{}, false
}

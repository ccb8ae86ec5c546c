package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// gasHeadroom is the percentage added on top of the node's gas estimate.
const gasHeadroom = 20

// Transactor signs and sends contract transactions with a local key.
type Transactor struct {
	client  *Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
}

// NewTransactor binds a signing key to the client. hexKey may carry a 0x prefix.
func NewTransactor(client *Client, hexKey string, chainID int64) (*Transactor, error) {
	if client == nil {
		return nil, errors.New("chain: client is required")
	}
	if chainID <= 0 {
		return nil, fmt.Errorf("chain: invalid chain id %d", chainID)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse private key: %w", err)
	}
	return &Transactor{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(chainID),
	}, nil
}

// From is the address transactions are sent from.
func (t *Transactor) From() common.Address { return t.from }

// CreateProject sends createProject(title, description, targetAmount, duration).
func (t *Transactor) CreateProject(ctx context.Context, contract common.Address, title, description string, target, duration *big.Int) (common.Hash, error) {
	return t.transact(ctx, contract, nil, "createProject", title, description, target, duration)
}

// Donate sends donate(projectId, encryptedAmount, inputProof) with value attached.
func (t *Transactor) Donate(ctx context.Context, contract common.Address, projectID *big.Int, handle [32]byte, proof []byte, value *big.Int) (common.Hash, error) {
	if value == nil || value.Sign() <= 0 {
		return common.Hash{}, errors.New("chain: donation value must be positive")
	}
	return t.transact(ctx, contract, value, "donate", projectID, handle, proof)
}

// WithdrawProjectFunds sends withdrawProjectFunds(projectId).
func (t *Transactor) WithdrawProjectFunds(ctx context.Context, contract common.Address, projectID *big.Int) (common.Hash, error) {
	return t.transact(ctx, contract, nil, "withdrawProjectFunds", projectID)
}

func (t *Transactor) transact(ctx context.Context, contract common.Address, value *big.Int, method string, args ...any) (common.Hash, error) {
	hash, err := t.send(ctx, contract, value, method, args...)
	t.client.metrics.ObserveContractCall(method, err)
	if err != nil {
		t.client.logger.Error().Err(err).Str("method", method).Str("from", t.from.Hex()).Msg("chain: transaction rejected")
		return common.Hash{}, err
	}
	t.client.logger.Info().Str("method", method).Str("tx", hash.Hex()).Msg("chain: transaction sent")
	return hash, nil
}

func (t *Transactor) send(ctx context.Context, contract common.Address, value *big.Int, method string, args ...any) (common.Hash, error) {
	if value == nil {
		value = new(big.Int)
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	b := t.client.backend

	nonce, err := b.PendingNonceAt(ctx, t.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: nonce: %w", err)
	}
	tip, err := b.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: gas tip: %w", err)
	}
	head, err := b.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}
	gas, err := b.EstimateGas(ctx, ethereum.CallMsg{
		From:      t.from,
		To:        &contract,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Value:     value,
		Data:      data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: estimate gas for %s: %w", method, err)
	}
	gas += gas * gasHeadroom / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   t.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &contract,
		Value:     value,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(t.chainID), t.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: sign: %w", err)
	}
	if err := b.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("chain: send %s: %w", method, err)
	}
	return signed.Hash(), nil
}

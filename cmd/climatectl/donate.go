package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"climatefund/internal/domain"
	"climatefund/internal/donation"
	"climatefund/internal/fhe"
)

var donateOpts struct {
	amount  string
	message string
	theme   string
}

var donateCmd = &cobra.Command{
	Use:   "donate <projectId>",
	Short: "Encrypt an amount, donate it and record the virtual NFT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		amount, err := domain.ParseEther(donateOpts.amount)
		if err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.cancel()
		tx, err := s.transactor()
		if err != nil {
			return err
		}
		ledger, err := openLedger(s.logger)
		if err != nil {
			return err
		}
		enc, err := fhe.NewSession(s.ctx, fhe.Config{
			ChainID:      chainID,
			NetworkURL:   rpcURL,
			RelayerURL:   relayerURL,
			EncryptorURL: encryptorURL,
		}, fhe.Options{Logger: s.logger})
		if err != nil {
			s.logger.Warn().Err(err).Msg("fhe session unavailable")
		}
		defer enc.Close()

		flow := &donation.Flow{Encrypter: enc, Writer: tx, Chain: s.client, Ledger: ledger, Logger: s.logger, Now: time.Now}
		res, err := flow.Submit(s.ctx, donation.Request{
			Contract:  s.contract,
			ProjectID: id,
			AmountWei: amount,
			Message:   donateOpts.message,
			Theme:     donateOpts.theme,
		})
		if err != nil {
			return fmt.Errorf("%s", donation.UserMessage(err))
		}
		out := map[string]any{"txHash": res.TxHash.Hex(), "blockNumber": res.BlockNumber, "nftSaved": res.NFTSaved}
		if res.NFT != nil {
			out["nft"] = res.NFT
		}
		return printJSON(cmd, out)
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <projectId>",
	Short: "Withdraw the funds of a project you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.cancel()
		tx, err := s.transactor()
		if err != nil {
			return err
		}
		flow := &donation.Flow{Writer: tx, Chain: s.client, Logger: s.logger}
		hash, err := flow.Withdraw(s.ctx, s.contract, id)
		if err != nil {
			return fmt.Errorf("%s", donation.UserMessage(err))
		}
		return printJSON(cmd, map[string]string{"txHash": hash.Hex()})
	},
}

func init() {
	f := donateCmd.Flags()
	f.StringVar(&donateOpts.amount, "amount", "", "donation in ETH")
	f.StringVar(&donateOpts.message, "message", "", "optional message stored on the NFT (max 200 characters)")
	f.StringVar(&donateOpts.theme, "theme", "FOREST", "NFT theme: FOREST, OCEAN, RENEWABLE or CARBON")
	_ = donateCmd.MarkFlagRequired("amount")
}

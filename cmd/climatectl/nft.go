package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"climatefund/internal/infra"
	"climatefund/internal/ipfs"
	"climatefund/internal/nft"
)

var nftLocale string

var nftCmd = &cobra.Command{
	Use:   "nft",
	Short: "Inspect the local virtual NFT ledger",
}

var nftListCmd = &cobra.Command{
	Use:   "list [address]",
	Short: "List recorded NFTs, optionally for one donor",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := listLedger(cmd.Context(), args)
		if err != nil {
			return err
		}
		return printJSON(cmd, all)
	},
}

var nftStatsCmd = &cobra.Command{
	Use:   "stats [address]",
	Short: "Summarize recorded NFTs by tier",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := listLedger(cmd.Context(), args)
		if err != nil {
			return err
		}
		return printJSON(cmd, nft.ComputeStats(all))
	},
}

var nftCardCmd = &cobra.Command{
	Use:   "card <id>",
	Short: "Render the display card of one NFT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := findNFT(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, nft.CardData(n, nftLocale))
	},
}

var nftPinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Pin the metadata of one NFT to IPFS through Pinata",
	Long: `pin uploads the NFT metadata with PINATA_API_KEY and PINATA_SECRET_KEY.
Without credentials a synthetic hash is printed and nothing is uploaded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := findNFT(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		logger := infra.NewCLILogger(verbose)
		client := ipfs.NewClient(ipfs.Options{
			APIKey:    envOr("PINATA_API_KEY", ""),
			SecretKey: envOr("PINATA_SECRET_KEY", ""),
			Logger:    &logger,
		})
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		hash, err := client.PinJSON(ctx, ipfs.FromNFT(n, nftLocale))
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"ipfsHash":  hash,
			"url":       ipfs.GatewayURL(hash),
			"synthetic": !client.HasCredentials(),
		})
	},
}

func listLedger(ctx context.Context, args []string) ([]nft.VirtualNFT, error) {
	logger := infra.NewCLILogger(verbose)
	ledger, err := openLedger(&logger)
	if err != nil {
		return nil, err
	}
	address := ""
	if len(args) == 1 {
		address = args[0]
	}
	return ledger.List(ctx, address)
}

func findNFT(ctx context.Context, id string) (nft.VirtualNFT, error) {
	all, err := listLedger(ctx, nil)
	if err != nil {
		return nft.VirtualNFT{}, err
	}
	for _, n := range all {
		if n.ID == id || strings.EqualFold(n.TxHash, id) {
			return n, nil
		}
	}
	return nft.VirtualNFT{}, fmt.Errorf("no NFT with id or transaction %q in %s", id, dataDir)
}

func init() {
	for _, c := range []*cobra.Command{nftCardCmd, nftPinCmd} {
		c.Flags().StringVar(&nftLocale, "locale", nft.LocaleEN, "card language: en or zh")
	}
}

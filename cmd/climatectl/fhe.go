package main

import (
	"context"

	"github.com/spf13/cobra"

	"climatefund/internal/fhe"
	"climatefund/internal/infra"
)

var fheCmd = &cobra.Command{
	Use:   "fhe",
	Short: "Check the FHE relayer",
}

var fheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Initialize a relayer session and print its status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := infra.NewCLILogger(verbose)
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		s, err := fhe.NewSession(ctx, fhe.Config{
			ChainID:      chainID,
			NetworkURL:   rpcURL,
			RelayerURL:   relayerURL,
			EncryptorURL: encryptorURL,
		}, fhe.Options{Logger: &logger})
		if err != nil {
			logger.Warn().Err(err).Msg("fhe session unavailable")
		}
		defer s.Close()
		return printJSON(cmd, s.Status())
	},
}

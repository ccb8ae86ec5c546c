package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"climatefund/internal/infra"
	"climatefund/internal/nft"
	"climatefund/internal/storage"
)

func seedLedger(t *testing.T, dir string) nft.VirtualNFT {
	t.Helper()
	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)
	n := nft.Generate(nft.GenerateInput{
		ProjectID:    big.NewInt(3),
		ProjectTitle: "Mangroves",
		Donor:        "0x00000000000000000000000000000000000000AA",
		AmountWei:    big.NewInt(5e15),
		Theme:        "OCEAN",
		TxHash:       "0xabc",
	}, time.Unix(1700000000, 0))
	require.NoError(t, nft.NewFileLedger(store, infra.NopLogger()).Save(context.Background(), n))
	return n
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseProjectID(t *testing.T) {
	id, err := parseProjectID("12")
	require.NoError(t, err)
	require.Equal(t, int64(12), id.Int64())

	for _, raw := range []string{"0", "-1", "abc", ""} {
		_, err := parseProjectID(raw)
		require.Error(t, err, raw)
	}
}

func TestNFTListAndStats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "storage")
	seeded := seedLedger(t, dir)

	out, err := run(t, "nft", "list", "0x00000000000000000000000000000000000000aa", "--data-dir", dir)
	require.NoError(t, err)
	var listed []nft.VirtualNFT
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, seeded.ID, listed[0].ID)

	out, err = run(t, "nft", "stats", "--data-dir", dir)
	require.NoError(t, err)
	var st nft.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	require.Equal(t, 1, st.Total)
	require.Equal(t, 1, st.ProjectsSupported)
}

func TestNFTCardByTxHash(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "storage")
	seedLedger(t, dir)

	out, err := run(t, "nft", "card", "0xABC", "--locale", "zh", "--data-dir", dir)
	require.NoError(t, err)
	var card nft.Card
	require.NoError(t, json.Unmarshal([]byte(out), &card))
	require.Contains(t, card.Description, "Mangroves")
	require.Contains(t, card.Description, "感谢")
}

func TestNFTCardUnknown(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "storage")
	_, err := run(t, "nft", "card", "nope", "--data-dir", dir)
	require.Error(t, err)
}

func TestProjectCommandsNeedContract(t *testing.T) {
	_, err := run(t, "stats", "--contract", "not-an-address")
	require.ErrorContains(t, err, "contract address is required")
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"climatefund/internal/domain"
	"climatefund/internal/nft"
	"climatefund/internal/sqlinline"
)

type stubExecutor struct {
	execQuery string
	execArgs  []any
	execErr   error
	row       []any
	rowErr    error
	rows      [][]any
	queryArgs []any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execQuery = query
	s.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), s.execErr
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queryArgs = args
	return stubRow{values: s.row, err: s.rowErr}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.queryArgs = args
	return &stubRows{data: s.rows, idx: -1}, nil
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type stubRows struct {
	data [][]any
	idx  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}
func (r *stubRows) Scan(dest ...any) error { return assign(r.data[r.idx], dest) }
func (r *stubRows) Values() ([]any, error) { return r.data[r.idx], nil }
func (r *stubRows) RawValues() [][]byte    { return nil }
func (r *stubRows) Conn() *pgx.Conn        { return nil }

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Pointer {
			return errors.New("scan: destination is not a pointer")
		}
		target.Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func TestNFTRepositorySave(t *testing.T) {
	exec := &stubExecutor{}
	r := NewNFTRepository(exec, nil)
	err := r.Save(context.Background(), nft.VirtualNFT{
		ID:        "1-0xabc-1",
		ProjectID: "1",
		TxHash:    "0xABC",
		Tier:      nft.Gold,
		Theme:     nft.ThemeOcean,
	})
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if exec.execQuery != sqlinline.QInsertVirtualNFT {
		t.Fatalf("unexpected query")
	}
	if len(exec.execArgs) != 15 {
		t.Fatalf("expected 15 args, got %d", len(exec.execArgs))
	}
	if exec.execArgs[4] != "0" {
		t.Fatalf("empty amount should default to 0, got %v", exec.execArgs[4])
	}
	if exec.execArgs[6] != 3 {
		t.Fatalf("tier arg = %v", exec.execArgs[6])
	}
	if exec.execArgs[11] != "0xabc" {
		t.Fatalf("tx hash should be lowercased, got %v", exec.execArgs[11])
	}
}

func nftRow(id string, tier int, reconciled bool) []any {
	return []any{id, "1", "Forest", "0xabc", "1000", int64(5), tier, "name", "e", "", "img", "0x01", "0xc", "FOREST", reconciled}
}

func TestNFTRepositoryList(t *testing.T) {
	exec := &stubExecutor{rows: [][]any{nftRow("a", 4, false), nftRow("b", 1, true)}}
	r := NewNFTRepository(exec, nil)
	got, err := r.List(context.Background(), " 0xABC ")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].Tier != nft.Platinum || got[0].Theme != nft.ThemeForest || !got[1].Reconciled {
		t.Fatalf("unexpected records: %+v", got)
	}
	if exec.queryArgs[0] != "0xABC" {
		t.Fatalf("address should be trimmed, got %v", exec.queryArgs[0])
	}
}

func TestNFTRepositoryListUnreconciledDefaultsLimit(t *testing.T) {
	exec := &stubExecutor{}
	r := NewNFTRepository(exec, nil)
	got, err := r.ListUnreconciled(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListUnreconciled error: %v", err)
	}
	if len(got) != 0 || exec.queryArgs[0] != 50 {
		t.Fatalf("unexpected call: %v %v", got, exec.queryArgs)
	}
}

func TestNFTRepositoryMarkChecked(t *testing.T) {
	exec := &stubExecutor{}
	r := NewNFTRepository(exec, nil)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	if err := r.MarkChecked(context.Background(), "a", at); err != nil {
		t.Fatalf("MarkChecked error: %v", err)
	}
	if exec.execQuery != sqlinline.QMarkNFTReconcileChecked {
		t.Fatalf("unexpected query")
	}
	if exec.execArgs[0] != "a" || !exec.execArgs[1].(time.Time).Equal(at) {
		t.Fatalf("unexpected args: %v", exec.execArgs)
	}
}

func TestSubmissionEnqueue(t *testing.T) {
	exec := &stubExecutor{row: []any{"id-1", "PENDING"}}
	r := NewSubmissionRepository(exec)
	s, err := r.Enqueue(context.Background(), domain.Submission{TxHash: " 0xAB ", Contract: "0xc"})
	if err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}
	if s.ID != "id-1" || s.Status != domain.SubmissionPending || s.TxHash != "0xab" {
		t.Fatalf("unexpected submission: %+v", s)
	}
	if exec.queryArgs[1] != "0xab" {
		t.Fatalf("tx arg = %v", exec.queryArgs[1])
	}
}

func TestSubmissionClaimEmpty(t *testing.T) {
	r := NewSubmissionRepository(&stubExecutor{rowErr: pgx.ErrNoRows})
	s, err := r.Claim(context.Background(), time.Second)
	if err != nil || s != nil {
		t.Fatalf("Claim on empty queue = %v, %v", s, err)
	}
}

func TestSubmissionClaim(t *testing.T) {
	exec := &stubExecutor{row: []any{"id", "0x01", "0xc", "hi", "OCEAN", 2}}
	r := NewSubmissionRepository(exec)
	s, err := r.Claim(context.Background(), 4*time.Second)
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if len(exec.queryArgs) != 1 || exec.queryArgs[0] != 4.0 {
		t.Fatalf("Claim retry delay args = %v, want [4]", exec.queryArgs)
	}
	if s.Status != domain.SubmissionProcessing || s.Attempts != 2 || s.Theme != "OCEAN" {
		t.Fatalf("unexpected submission: %+v", s)
	}
}

func TestSubmissionGetByTxNotFound(t *testing.T) {
	r := NewSubmissionRepository(&stubExecutor{rowErr: pgx.ErrNoRows})
	if _, err := r.GetByTx(context.Background(), "0x01"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByTx error = %v, want ErrNotFound", err)
	}
}

func TestSubmissionUpdateStatus(t *testing.T) {
	exec := &stubExecutor{}
	r := NewSubmissionRepository(exec)
	if err := r.UpdateStatus(context.Background(), "id", domain.SubmissionFailed, "reverted"); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if exec.execArgs[1] != "FAILED" || exec.execArgs[2] != "reverted" {
		t.Fatalf("unexpected args: %v", exec.execArgs)
	}
}

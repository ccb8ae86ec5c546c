package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"climatefund/internal/domain"
	"climatefund/internal/infra"
	"climatefund/internal/sqlinline"
)

// SubmissionRepositoryPG stores donation transactions awaiting confirmation.
type SubmissionRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSubmissionRepository creates a repository over donation_submissions.
func NewSubmissionRepository(sql infra.SQLExecutor) *SubmissionRepositoryPG {
	return &SubmissionRepositoryPG{sql: sql}
}

// Enqueue records a transaction for confirmation. Resubmitting a known
// transaction returns the existing record's id and status.
func (r *SubmissionRepositoryPG) Enqueue(ctx context.Context, s domain.Submission) (domain.Submission, error) {
	s.TxHash = strings.ToLower(strings.TrimSpace(s.TxHash))
	row := r.sql.QueryRow(ctx, sqlinline.QInsertSubmission, uuid.NewString(), s.TxHash, s.Contract, s.Message, s.Theme)
	var status string
	if err := row.Scan(&s.ID, &status); err != nil {
		return domain.Submission{}, err
	}
	s.Status = domain.SubmissionStatus(status)
	return s, nil
}

// Claim locks the oldest pending submission for processing. A submission
// that was already attempted is only offered again once retryAfter has passed
// since its last update. It returns (nil, nil) when nothing is due.
func (r *SubmissionRepositoryPG) Claim(ctx context.Context, retryAfter time.Duration) (*domain.Submission, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimSubmission, retryAfter.Seconds())
	var s domain.Submission
	if err := row.Scan(&s.ID, &s.TxHash, &s.Contract, &s.Message, &s.Theme, &s.Attempts); err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	s.Status = domain.SubmissionProcessing
	return &s, nil
}

// UpdateStatus moves a submission to status, recording lastError.
func (r *SubmissionRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, lastError string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateSubmissionStatus, id, string(status), lastError)
	return err
}

// GetByTx looks a submission up by transaction hash.
func (r *SubmissionRepositoryPG) GetByTx(ctx context.Context, txHash string) (*domain.Submission, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectSubmissionByTx, strings.TrimSpace(txHash))
	var s domain.Submission
	var status string
	if err := row.Scan(&s.ID, &s.TxHash, &s.Contract, &s.Message, &s.Theme, &status, &s.Attempts, &s.LastError); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.Status = domain.SubmissionStatus(status)
	return &s, nil
}

package domain

// SubmissionStatus tracks a donation transaction handed to the worker.
type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "PENDING"
	SubmissionProcessing SubmissionStatus = "PROCESSING"
	SubmissionConfirmed  SubmissionStatus = "CONFIRMED"
	SubmissionFailed     SubmissionStatus = "FAILED"
)

// Submission is a donation transaction whose virtual NFT is derived once the
// transaction is mined.
type Submission struct {
	ID        string
	TxHash    string
	Contract  string
	Message   string
	Theme     string
	Status    SubmissionStatus
	Attempts  int
	LastError string
}

// Terminal reports whether the worker is done with the submission.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionConfirmed || s == SubmissionFailed
}

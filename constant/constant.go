package constant

type JobStatus string

const (
	JobStatusUploading  JobStatus = "UPLOADING"
	JobStatusUploaded   JobStatus = "UPLOADED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

func (s JobStatus) String() string {
	return string(s)
}

// Terminal reports whether no further transition may leave the state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type SplitMethod string

const (
	SplitMethodTimeBased SplitMethod = "time_based"
	SplitMethodIntervals SplitMethod = "intervals"
	SplitMethodChapters  SplitMethod = "chapters"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

// FailureReasonTimeout is stored when a processing job stalls past the
// configured ceiling without a progress update.
const FailureReasonTimeout = "Timeout"

// FailureReasonCancelled is stored when a client cancels a processing job.
const FailureReasonCancelled = "Cancelled"

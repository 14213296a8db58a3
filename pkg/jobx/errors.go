package jobx

import "github.com/relayhr/doccapture/pkg/errx"

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrJobNotFound    = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrInvalidJob     = jobxErrors.Register("INVALID_JOB", errx.TypeValidation, 400, "Invalid job definition")
	ErrAlreadyRunning = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Worker is already running")
)

// NotFound builds the canonical missing-job error for backends.
func NotFound(jobID string) *errx.Error {
	return jobxErrors.New(ErrJobNotFound).WithDetail("job_id", jobID)
}

package enums

// SubmissionState models the checkout submission machine. Every failure
// path returns to Idle so the buyer can explicitly resubmit; there is no
// implicit retry.
type SubmissionState string

const (
	SubmissionStateIdle        SubmissionState = "idle"
	SubmissionStateValidating  SubmissionState = "validating"
	SubmissionStateSubmitting  SubmissionState = "submitting"
	SubmissionStateRedirecting SubmissionState = "redirecting"
	SubmissionStateCompleted   SubmissionState = "completed"
	SubmissionStateFailed      SubmissionState = "failed"
)

// String implements fmt.Stringer.
func (s SubmissionState) String() string {
	return string(s)
}

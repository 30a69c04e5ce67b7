package submission

import "errors"

var (
	// ErrSubmissionNotFound covers every claim-path authorization failure:
	// unknown code, already claimed, or already swept. Handlers must not
	// distinguish the sub-causes.
	ErrSubmissionNotFound = errors.New("submission not found")
)

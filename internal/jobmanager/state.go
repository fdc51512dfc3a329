package jobmanager

type JobState int

const (
	// JobStateUnknown is the zero value for functions that return a (possibly
	// absent) JobState.
	JobStateUnknown JobState = iota

	// JobStateRunning indicates the process is executing, either since launch
	// or since it was last continued.
	JobStateRunning

	// JobStateStopped indicates the process has been suspended by a stop
	// signal and can be continued.
	JobStateStopped
)

// NOTE: This slice needs to be kept in sync with any changes to the JobState
// values. Terminal outcomes (finished, killed) are deliberately absent since
// those Jobs are removed from the Table rather than stored.
var jobStates = []string{
	"Unknown",
	"Running",
	"Stopped",
}

// String implements the Stringer interface for JobState and returns a string
// representation of the JobState by using the int value to index into a slice.
func (s JobState) String() string {
	if int(s) < 0 || int(s) >= len(jobStates) {
		return jobStates[0]
	}

	return jobStates[s]
}

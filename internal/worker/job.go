package worker

import "time"

// Job is one maintenance request for a dataset.
type Job struct {
	Dataset string
	Create  bool      // take a new snapshot before cleaning up
	Now     time.Time // reference time; zero means time of execution
}

package ingest

// Status classifies the outcome of ingesting one file.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusFailed             Status = "failed"
	StatusSkippedUnchanged   Status = "skipped_unchanged"
	StatusSkippedEmpty       Status = "skipped_empty"
	StatusSkippedUnsupported Status = "skipped_unsupported"
	StatusSkippedStopped     Status = "skipped_stopped"
)

// Stats aggregates the outcomes of one ingest run.
type Stats struct {
	Total              int
	Completed          int
	OK                 int
	Failed             int
	SkippedUnchanged   int
	SkippedEmpty       int
	SkippedUnsupported int
	SkippedStopped     int
	Stopped            bool
	ElapsedMS          int64
}

func (s *Stats) count(status Status) {
	s.Completed++
	switch status {
	case StatusOK:
		s.OK++
	case StatusFailed:
		s.Failed++
	case StatusSkippedUnchanged:
		s.SkippedUnchanged++
	case StatusSkippedEmpty:
		s.SkippedEmpty++
	case StatusSkippedUnsupported:
		s.SkippedUnsupported++
	case StatusSkippedStopped:
		s.SkippedStopped++
	}
}

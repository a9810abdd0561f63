package recorder

import "GapSentinel/internal/model"

// Recorder persists replay reports for later analysis. Nothing written here
// is read back by a replay.
type Recorder interface {
	RecordRun(report *model.Report) error
	Close() error
}

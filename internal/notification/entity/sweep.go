package entity

// SweepResult reports one retry sweep. Skipped is set when another sweep was
// already running in this process.
type SweepResult struct {
	Attempted int64
	Succeeded int64
	Failed    int64
	Skipped   bool
}

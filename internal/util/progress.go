package util

import "fmt"

// ScanStepProgress reports per-state item counts of a scan run as
// "done/total" strings, matching what the frontend renders verbatim.
type ScanStepProgress struct {
	Pending   string `json:"pending,omitempty"`
	Running   string `json:"running,omitempty"`
	Completed string `json:"completed,omitempty"`
	Failed    string `json:"failed,omitempty"`
}

// ScanProgress is the aggregate progress of one scan run.
type ScanProgress struct {
	Step       *ScanStepProgress `json:"step,omitempty"`
	Percentage *int32            `json:"percentage,omitempty"`
}

// ScanCounts are the raw per-state counts of a run's items.
type ScanCounts struct {
	Total     int64
	Pending   int64
	Running   int64
	Completed int64
	Failed    int64
}

// BuildScanProgress converts raw counts into display progress. Failed
// items count as finished work so a run with failures still reaches
// 100 percent.
func BuildScanProgress(counts ScanCounts) ScanProgress {
	if counts.Total <= 0 {
		return ScanProgress{}
	}

	step := ScanStepProgress{}
	hasStep := false
	if counts.Pending > 0 {
		step.Pending = fmt.Sprintf("%d/%d", counts.Pending, counts.Total)
		hasStep = true
	}
	if counts.Running > 0 {
		step.Running = fmt.Sprintf("%d/%d", counts.Running, counts.Total)
		hasStep = true
	}
	if counts.Completed > 0 {
		step.Completed = fmt.Sprintf("%d/%d", counts.Completed, counts.Total)
		hasStep = true
	}
	if counts.Failed > 0 {
		step.Failed = fmt.Sprintf("%d/%d", counts.Failed, counts.Total)
		hasStep = true
	}

	progress := ScanProgress{}
	if hasStep {
		progress.Step = &step
	}

	percentage := CalculateScanPercentage(counts)
	progress.Percentage = &percentage
	return progress
}

// CalculateScanPercentage returns completed work over total, clamped
// to [0, 100].
func CalculateScanPercentage(counts ScanCounts) int32 {
	if counts.Total <= 0 {
		return 0
	}
	finished := counts.Completed + counts.Failed
	if finished > counts.Total {
		finished = counts.Total
	}
	return int32(finished * 100 / counts.Total)
}

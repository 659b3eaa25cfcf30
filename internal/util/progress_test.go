package util

import "testing"

func TestCalculateScanPercentage(t *testing.T) {
	tests := []struct {
		name   string
		counts ScanCounts
		want   int32
	}{
		{"empty run", ScanCounts{}, 0},
		{"half done", ScanCounts{Total: 10, Completed: 5}, 50},
		{"failures count as finished", ScanCounts{Total: 4, Completed: 2, Failed: 2}, 100},
		{"overshoot clamps to total", ScanCounts{Total: 3, Completed: 3, Failed: 2}, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalculateScanPercentage(tc.counts); got != tc.want {
				t.Fatalf("expected %d%%, got %d%%", tc.want, got)
			}
		})
	}
}

func TestBuildScanProgress(t *testing.T) {
	p := BuildScanProgress(ScanCounts{Total: 5, Pending: 2, Completed: 2, Failed: 1})
	if p.Step == nil {
		t.Fatal("expected step progress")
	}
	if p.Step.Pending != "2/5" || p.Step.Completed != "2/5" || p.Step.Failed != "1/5" {
		t.Fatalf("unexpected step progress: %+v", *p.Step)
	}
	if p.Step.Running != "" {
		t.Fatalf("expected empty running step, got %q", p.Step.Running)
	}
	if p.Percentage == nil || *p.Percentage != 60 {
		t.Fatalf("unexpected percentage: %v", p.Percentage)
	}

	empty := BuildScanProgress(ScanCounts{})
	if empty.Step != nil || empty.Percentage != nil {
		t.Fatalf("expected zero progress for empty run, got %+v", empty)
	}
}

package util

import (
	"strings"
	"testing"
)

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	if !strings.HasPrefix(id, "filter-") {
		t.Fatalf("run id %q missing filter prefix", id)
	}
	if len(id) != len("filter-")+shortIDLength {
		t.Fatalf("run id %q has unexpected length", id)
	}
	if id == NewRunID() {
		t.Fatal("two run ids must not collide")
	}
}

func TestNewJobID(t *testing.T) {
	id := NewJobID("scan")
	if !strings.HasPrefix(id, "scan-") {
		t.Fatalf("job id %q missing kind prefix", id)
	}
}

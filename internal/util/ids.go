package util

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const shortIDLength = 8

// NewRunID returns a fresh scan run identifier, e.g. "filter-x1Yz9AbC".
func NewRunID() string {
	return "filter-" + mustShortID()
}

// NewJobID returns an identifier for a queued background job.
func NewJobID(kind string) string {
	return fmt.Sprintf("%s-%s", kind, mustShortID())
}

func mustShortID() string {
	id, err := gonanoid.New(shortIDLength)
	if err != nil {
		// gonanoid only fails when the OS random source is broken;
		// nothing sensible can run in that state.
		panic(err)
	}
	return id
}

package analysis

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/engineer42AI/regtrace/pkg/outline"
)

// maxLineBytes bounds a single stream line. Context blocks are a few
// kilobytes; a megabyte leaves ample room.
const maxLineBytes = 1 << 20

// ApplyStream consumes a line-delimited event stream and merges every
// item_done into the tree via copy-on-write. Malformed lines are
// skipped individually and never abort the stream. Cancelling ctx stops
// further reads; events parsed before cancellation stay applied. The
// returned tree is the latest snapshot, applied is the number of items
// merged.
func ApplyStream(
	ctx context.Context,
	r io.Reader,
	root *outline.Node,
) (tree *outline.Node, applied int, err error) {
	tree = root

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	runID := ""
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return tree, applied, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if event.Type == EventRunStart && event.RunID != "" {
			runID = event.RunID
			continue
		}
		if event.Type != EventItemDone || event.Item == nil {
			continue
		}

		next := outline.AppendResult(tree, event.Item.BottomID, toResult(runID, *event.Item))
		if next != tree {
			tree = next
			applied++
		}
	}
	if err := scanner.Err(); err != nil {
		return tree, applied, err
	}
	return tree, applied, nil
}

func toResult(runID string, item ItemResult) outline.Result {
	return outline.Result{
		RunID:     runID,
		Relevant:  item.Response.Relevant,
		Rationale: item.Response.Rationale,
		Error:     item.Response.Error,
		Cost:      item.Usage.TotalCost,
		TokensIn:  item.Usage.TokensIn,
		TokensOut: item.Usage.TokensOut,
	}
}

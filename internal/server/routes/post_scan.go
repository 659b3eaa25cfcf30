package routes

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/engineer42AI/regtrace/internal/queue"
	"github.com/engineer42AI/regtrace/internal/server/middleware"
	"github.com/engineer42AI/regtrace/internal/util"
	"github.com/engineer42AI/regtrace/pkg/analysis"
	"github.com/engineer42AI/regtrace/pkg/logger"
	"github.com/engineer42AI/regtrace/pkg/store"
	pgxstore "github.com/engineer42AI/regtrace/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

type scanRequest struct {
	Query     string `json:"query" validate:"required"`
	Model     string `json:"model"`
	BatchSize int    `json:"batch_size"`
	Stream    bool   `json:"stream"`
}

// PostScanHandler starts a relevance scan over a corpus. With
// stream=true the scan runs inline and the event stream is written to
// the response as NDJSON; closing the connection cancels the run.
// Otherwise the scan is queued for the worker and the run id returned
// immediately.
func PostScanHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	corpusID := c.Param("id")

	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	entry, err := loadCorpus(ctx, app, corpusID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Corpus not found: " + err.Error()})
	}

	runID := util.NewRunID()
	runStore := pgxstore.New(app.DBConn)
	items := analysis.BuildItems(entry.Graph, entry.Rows)

	if err := runStore.CreateRun(ctx, store.ScanRun{
		ID:          runID,
		CorpusID:    corpusID,
		Query:       req.Query,
		Model:       req.Model,
		Status:      store.RunStatusPending,
		TotalTraces: len(items),
	}); err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	if !req.Stream {
		msg, err := json.Marshal(queue.ScanJobMsg{
			RunID:        runID,
			CorpusID:     corpusID,
			CorpusPrefix: corpusPrefix(corpusID),
			Query:        req.Query,
			Model:        req.Model,
			BatchSize:    req.BatchSize,
		})
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if err := queue.PublishFIFO(app.Queue, queue.ScanQueue, msg); err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusAccepted, map[string]any{
			"run_id":       runID,
			"total_traces": len(items),
			"status":       store.RunStatusPending,
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/x-ndjson")
	c.Response().WriteHeader(http.StatusOK)

	if err := runStore.UpdateRunStatus(ctx, runID, store.RunStatusRunning); err != nil {
		return err
	}

	sectionOf := make(map[string]string, len(entry.Lookups))
	for bottomID, lookup := range entry.Lookups {
		sectionOf[bottomID] = lookup.SectionID
	}

	ndjson := analysis.NDJSONEmitter(c.Response(), func() { c.Response().Flush() })
	emit := func(e analysis.Event) error {
		if e.Type == analysis.EventItemDone && e.Item != nil {
			if err := runStore.SaveResult(ctx, store.ScanResult{
				RunID:     runID,
				TraceID:   e.Item.TraceID,
				BottomID:  e.Item.BottomID,
				SectionID: sectionOf[e.Item.BottomID],
				Relevant:  e.Item.Response.Relevant,
				Rationale: e.Item.Response.Rationale,
				Error:     e.Item.Response.Error,
				TokensIn:  e.Item.Usage.TokensIn,
				TokensOut: e.Item.Usage.TokensOut,
				Cost:      e.Item.Usage.TotalCost,
			}); err != nil {
				logger.Error("[Scan] Failed to persist result", "run_id", runID, "err", err)
			}
		}
		return ndjson(e)
	}

	summary, runErr := analysis.NewRunner(app.AiClient).Run(ctx, analysis.RunConfig{
		RunID:     runID,
		Model:     req.Model,
		Query:     req.Query,
		BatchSize: req.BatchSize,
	}, items, emit)

	// The request context is gone once the client disconnects, finish
	// the bookkeeping on a background context.
	finishCtx := c.Request().Context()
	status := store.RunStatusCompleted
	if runErr != nil {
		status = store.RunStatusCancelled
		finishCtx = context.WithoutCancel(finishCtx)
	}
	if err := runStore.FinishRun(finishCtx, runID, status,
		summary.TotalTraces, summary.TokensIn, summary.TokensOut, summary.EstimatedCost); err != nil {
		logger.Error("[Scan] Failed to finish run", "run_id", runID, "err", err)
	}

	return nil
}

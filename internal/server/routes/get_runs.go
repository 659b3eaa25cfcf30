package routes

import (
	"errors"
	"net/http"

	"github.com/engineer42AI/regtrace/internal/server/middleware"
	"github.com/engineer42AI/regtrace/internal/util"
	pgxstore "github.com/engineer42AI/regtrace/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetRunsHandler lists the scan runs of a corpus, newest first.
func GetRunsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	runs, err := pgxstore.New(app.DBConn).ListRuns(ctx, c.Param("id"))
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs})
}

// GetRunHandler returns one run with its progress.
func GetRunHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	runID := c.Param("run_id")

	runStore := pgxstore.New(app.DBConn)
	run, err := runStore.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, pgxstore.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Run not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	counts, err := runStore.CountResults(ctx, runID)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	pending := run.TotalTraces - counts.Total
	if pending < 0 {
		pending = 0
	}
	progress := util.BuildScanProgress(util.ScanCounts{
		Total:     int64(run.TotalTraces),
		Pending:   int64(pending),
		Completed: int64(counts.Completed),
		Failed:    int64(counts.Failed),
	})

	return c.JSON(http.StatusOK, map[string]any{
		"run":      run,
		"progress": progress,
	})
}

// GetRunResultsHandler returns the persisted per-trace verdicts of a
// run in trace order.
func GetRunResultsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	results, err := pgxstore.New(app.DBConn).ListResults(ctx, c.Param("run_id"))
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"results": results})
}

package routes

import (
	"net/http"

	"github.com/engineer42AI/regtrace/internal/server/middleware"
	"github.com/engineer42AI/regtrace/pkg/outline"
	pgxstore "github.com/engineer42AI/regtrace/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetOutlineHandler returns the display outline of a corpus with
// per-node result statistics. With ?run_id= the persisted results of
// that run are merged into the tree before stats are computed.
func GetOutlineHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	corpusID := c.Param("id")

	entry, err := loadCorpus(ctx, app, corpusID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Corpus not found: " + err.Error()})
	}

	tree := entry.Outline.Root

	if runID := c.QueryParam("run_id"); runID != "" {
		results, err := pgxstore.New(app.DBConn).ListResults(ctx, runID)
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		for _, res := range results {
			tree = outline.AppendResult(tree, res.BottomID, outline.Result{
				RunID:     res.RunID,
				Relevant:  res.Relevant,
				Rationale: res.Rationale,
				Error:     res.Error,
				Cost:      res.Cost,
				TokensIn:  res.TokensIn,
				TokensOut: res.TokensOut,
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"corpus_id": corpusID,
		"manifest":  entry.Manifest.Meta,
		"outline":   tree,
		"stats":     outline.ComputeStats(tree),
	})
}

package routes

import (
	"net/http"

	"github.com/engineer42AI/regtrace/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetTraceHandler returns the full context of one node: its
// root-to-leaf hierarchy, the citations touching that path and the
// intent records of the node.
func GetTraceHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	corpusID := c.Param("id")
	nodeID := c.Param("node")

	entry, err := loadCorpus(ctx, app, corpusID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Corpus not found: " + err.Error()})
	}

	g := entry.Graph
	if !g.HasNode(nodeID) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Node not found"})
	}

	path := g.TraceUp(nodeID)
	return c.JSON(http.StatusOK, map[string]any{
		"corpus_id": corpusID,
		"node_id":   nodeID,
		"path":      path,
		"citations": g.CitationsFor(path),
		"intents":   g.IntentsFor(nodeID),
	})
}

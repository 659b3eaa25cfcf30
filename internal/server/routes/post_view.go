package routes

import (
	"net/http"

	"github.com/engineer42AI/regtrace/internal/server/middleware"
	"github.com/engineer42AI/regtrace/pkg/graph"

	"github.com/labstack/echo/v4"
)

// viewRequest carries the client's working snapshot plus the node to
// operate on. The server holds no view state, every request gets a
// fresh snapshot back.
type viewRequest struct {
	NodeID string     `json:"node_id" validate:"required"`
	View   graph.View `json:"view"`
	Hidden []string   `json:"hidden"`
}

type viewResponse struct {
	View    graph.View `json:"view"`
	Visible graph.View `json:"visible"`
	Hidden  []string   `json:"hidden"`
}

func decodeViewRequest(c echo.Context) (viewRequest, graph.VisibilitySet, error) {
	var req viewRequest
	if err := c.Bind(&req); err != nil {
		return req, nil, err
	}
	if err := c.Validate(&req); err != nil {
		return req, nil, err
	}
	if req.View.Nodes == nil {
		req.View = graph.NewView()
	}
	if req.View.Edges == nil {
		req.View.Edges = map[string]graph.ViewEdge{}
	}

	vis := graph.NewVisibilitySet()
	for _, id := range req.Hidden {
		vis[id] = struct{}{}
	}
	return req, vis, nil
}

func viewReply(c echo.Context, view graph.View, vis graph.VisibilitySet) error {
	hidden := make([]string, 0, len(vis))
	for id := range vis {
		hidden = append(hidden, id)
	}
	return c.JSON(http.StatusOK, viewResponse{
		View:    view,
		Visible: graph.Visible(view, vis),
		Hidden:  hidden,
	})
}

// PostViewExpandHandler reveals the children of a node in the client's
// working snapshot.
func PostViewExpandHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	entry, err := loadCorpus(ctx, app, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Corpus not found: " + err.Error()})
	}

	req, vis, err := decodeViewRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	view, vis := graph.Expand(entry.Graph, req.View, vis, req.NodeID)
	return viewReply(c, view, vis)
}

// PostViewCollapseHandler hides the descendants of a node, keeping the
// node itself visible.
func PostViewCollapseHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	entry, err := loadCorpus(ctx, app, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Corpus not found: " + err.Error()})
	}

	req, vis, err := decodeViewRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	view, vis := graph.Collapse(entry.Graph, req.View, vis, req.NodeID)
	return viewReply(c, view, vis)
}

package routes

import (
	"encoding/json"
	"net/http"

	"github.com/engineer42AI/regtrace/internal/queue"
	"github.com/engineer42AI/regtrace/internal/server/middleware"
	pgxstore "github.com/engineer42AI/regtrace/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

type recommendRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit"`
}

// PostRecommendHandler ranks the sections of a corpus against a free
// text query by embedding similarity. Sections must have been embedded
// first, see PostEmbedHandler.
func PostRecommendHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	corpusID := c.Param("id")

	var req recommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	embedding, err := app.AiClient.GenerateEmbedding(ctx, []byte(req.Query))
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	sections, err := pgxstore.New(app.DBConn).RecommendSections(ctx, corpusID, embedding, req.Limit)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"corpus_id": corpusID,
		"sections":  sections,
	})
}

// PostEmbedHandler queues the section embedding job for a corpus.
func PostEmbedHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	corpusID := c.Param("id")

	msg, err := json.Marshal(queue.EmbedJobMsg{
		CorpusID:     corpusID,
		CorpusPrefix: corpusPrefix(corpusID),
	})
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if err := queue.PublishFIFO(app.Queue, queue.EmbedQueue, msg); err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusAccepted, map[string]string{"corpus_id": corpusID, "status": "queued"})
}

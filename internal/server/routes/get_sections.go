package routes

import (
	"net/http"
	"sort"

	"github.com/engineer42AI/regtrace/internal/server/middleware"
	"github.com/engineer42AI/regtrace/pkg/outline"

	"github.com/labstack/echo/v4"
)

// GetSectionsHandler lists every section of a corpus with its
// requirement traces, in outline order.
func GetSectionsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	corpusID := c.Param("id")

	entry, err := loadCorpus(ctx, app, corpusID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Corpus not found: " + err.Error()})
	}

	type section struct {
		SectionID string             `json:"section_id"`
		Label     string             `json:"label"`
		Traces    []outline.TraceRow `json:"traces"`
	}

	sections := make([]section, 0, len(entry.Rows))
	for sectionID, rows := range entry.Rows {
		label := sectionID
		if n := entry.Outline.Find(entry.Outline.Root, sectionID); n != nil {
			label = n.Label
		}
		sections = append(sections, section{
			SectionID: sectionID,
			Label:     label,
			Traces:    rows,
		})
	}
	sort.Slice(sections, func(i, j int) bool {
		return sections[i].SectionID < sections[j].SectionID
	})

	return c.JSON(http.StatusOK, map[string]any{
		"corpus_id": corpusID,
		"sections":  sections,
	})
}

package routes

import (
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/engineer42AI/regtrace/internal/server/middleware"
	"github.com/engineer42AI/regtrace/internal/storage"
	"github.com/engineer42AI/regtrace/internal/util"
	"github.com/engineer42AI/regtrace/pkg/corpus"
	"github.com/engineer42AI/regtrace/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetCorporaHandler lists the corpus ids present in the bundle bucket.
func GetCorporaHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	base := util.GetEnvString("CORPUS_S3_PREFIX", "corpora")
	keys, err := storage.ListKeys(ctx, app.S3, base+"/")
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	seen := map[string]bool{}
	ids := make([]string, 0)
	for _, key := range keys {
		rest := strings.TrimPrefix(key, base+"/")
		id, _, ok := strings.Cut(rest, "/")
		if !ok || id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return c.JSON(http.StatusOK, map[string]any{"corpora": ids})
}

// PostCorpusFilesHandler uploads bundle files for a corpus. After the
// upload the manifest checksum is verified and the integrity status
// returned, an invalid upload stays in place for inspection.
func PostCorpusFilesHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	corpusID := c.Param("id")

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No files provided"})
	}

	prefix := corpusPrefix(corpusID)
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		key := path.Join(prefix, path.Base(fh.Filename))
		err = storage.PutObject(ctx, app.S3, key, fh.Header.Get("Content-Type"), f)
		f.Close()
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
	}

	src := corpus.S3Source{Client: app.S3, Prefix: prefix}
	status := corpus.StatusMissing
	if manifest, err := corpus.LoadManifest(ctx, src); err == nil {
		status, err = manifest.Verify(ctx, src)
		if err != nil {
			logger.Warn("[Corpus] Integrity check failed", "corpus_id", corpusID, "err", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"corpus_id": corpusID,
		"uploaded":  len(files),
		"integrity": status,
	})
}

// DeleteCorpusHandler removes every object of a corpus.
func DeleteCorpusHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	corpusID := c.Param("id")

	if err := storage.DeletePrefix(ctx, app.S3, corpusPrefix(corpusID)); err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	corpusCacheMu.Lock()
	for key := range corpusCache {
		if strings.HasPrefix(key, corpusID+"@") {
			delete(corpusCache, key)
		}
	}
	corpusCacheMu.Unlock()

	return c.JSON(http.StatusOK, map[string]string{"corpus_id": corpusID, "status": "deleted"})
}

// GetCorpusFileLinkHandler returns a presigned download link for one
// bundle file.
func GetCorpusFileLinkHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	key := path.Join(corpusPrefix(c.Param("id")), path.Base(c.Param("name")))
	link, err := storage.GenerateDownloadLink(ctx, app.S3, key)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"url": link})
}

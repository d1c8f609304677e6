package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dshills/lamp/internal/ingest"
	"github.com/dshills/lamp/internal/output"
	"github.com/dshills/lamp/internal/providers"
	"github.com/dshills/lamp/internal/review"
)

// formFiles is the multipart field carrying uploads.
const formFiles = "files"

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

type modelsResponse struct {
	Default string   `json:"default"`
	Models  []string `json:"models"`
}

func (s *Server) handleModels(c echo.Context) error {
	return c.JSON(http.StatusOK, modelsResponse{
		Default: s.cfg.Model,
		Models:  providers.KnownModels,
	})
}

// handleReview runs a full review. The response is the JSON outcome, or a
// Markdown report when format=markdown.
func (s *Server) handleReview(c echo.Context) error {
	req, err := s.bindRequest(c)
	if err != nil {
		return err
	}
	req.APIKey = bearerToken(c.Request())

	out, err := s.engine.Run(c.Request().Context(), req)
	if err != nil {
		return err
	}

	if strings.EqualFold(c.QueryParam("format"), "markdown") {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%q", output.ReportFilename(out)))
		c.Response().Header().Set(echo.HeaderContentType, "text/markdown; charset=utf-8")
		c.Response().WriteHeader(http.StatusOK)
		return (&output.MarkdownWriter{}).Write(c.Response(), out)
	}
	return c.JSON(http.StatusOK, reviewResponse{Outcome: out, FullText: out.Result.FullText})
}

type reviewResponse struct {
	*review.Outcome
	// FullText duplicates result.fullText at the top level for simple clients.
	FullText string `json:"fullText"`
}

type promptResponse struct {
	*review.Prepared
	Summary string `json:"summary"`
	Prompt  string `json:"prompt"`
}

// handlePrompt assembles and validates without calling the provider.
func (s *Server) handlePrompt(c echo.Context) error {
	req, err := s.bindRequest(c)
	if err != nil {
		return err
	}
	p, err := s.engine.Prepare(req)
	if err != nil {
		return newBadRequestError("invalid request", err)
	}
	return c.JSON(http.StatusOK, promptResponse{
		Prepared: p,
		Summary:  review.ProcessingSummary(p.Ingest),
		Prompt:   p.Payload.Text(),
	})
}

func (s *Server) bindRequest(c echo.Context) (review.Request, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return review.Request{}, newBadRequestError("expected multipart/form-data", err)
	}
	headers := form.File[formFiles]
	if len(headers) == 0 {
		return review.Request{}, &APIError{
			Status:  http.StatusBadRequest,
			Code:    "VALIDATION_ERROR",
			Message: fmt.Sprintf("no files uploaded in field %q", formFiles),
		}
	}

	mode, err := review.ParseMode(c.FormValue("mode"))
	if err != nil {
		return review.Request{}, newBadRequestError("invalid mode", err)
	}
	force, _ := strconv.ParseBool(c.FormValue("force"))

	req := review.Request{
		Model: strings.TrimSpace(c.FormValue("model")),
		Mode:  mode,
		Force: force,
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return review.Request{}, newBadRequestError("reading upload "+fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return review.Request{}, newBadRequestError("reading upload "+fh.Filename, err)
		}
		req.Uploads = append(req.Uploads, ingest.Upload{Name: fh.Filename, Data: data})
	}
	return req, nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

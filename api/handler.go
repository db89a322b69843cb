// Package api serves the read side: range queries, exports, health and the
// static page.
package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/dolar-feed/errors"
	"github.com/infigaming-com/dolar-feed/reports"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const DefaultLimit = 1000

// RangeRequest is the body of POST /valores/rango.
type RangeRequest struct {
	Start *Timestamp `json:"start"`
	End   *Timestamp `json:"end"`
	Limit *int       `json:"limit"`
}

type HandlerOption func(*Handler)

func WithStaticDir(dir string) HandlerOption {
	return func(h *Handler) {
		h.staticDir = dir
	}
}

func WithDefaultLimit(limit int) HandlerOption {
	return func(h *Handler) {
		if limit > 0 {
			h.defaultLimit = limit
		}
	}
}

type Handler struct {
	lg           *zap.Logger
	svc          *RangeService
	staticDir    string
	defaultLimit int
}

func NewHandler(lg *zap.Logger, svc *RangeService, opts ...HandlerOption) *Handler {
	h := &Handler{
		lg:           lg,
		svc:          svc,
		staticDir:    "static",
		defaultLimit: DefaultLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(e *gin.Engine) {
	e.GET("/health", h.Health)
	e.GET("/", h.Index)
	e.Static("/static", h.staticDir)
	e.POST("/valores/rango", h.Range)
	e.GET("/valores/export", h.Export)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Index(c *gin.Context) {
	c.File(filepath.Join(h.staticDir, "index.html"))
}

func (h *Handler) Range(c *gin.Context) {
	var req RangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, invalidBody(err))
		return
	}
	if req.Start == nil || req.End == nil {
		abortWithError(c, invalidBody(stderrors.New("start y end son obligatorios")))
		return
	}
	limit := lo.FromPtrOr(req.Limit, h.defaultLimit)

	resp, err := h.svc.Range(c.Request.Context(), req.Start.Time, req.End.Time, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export renders the same selection as Range as a downloadable report.
// Parameters come from the query string: start, end, limit and format.
func (h *Handler) Export(c *gin.Context) {
	start, err := ParseTimestamp(c.Query("start"))
	if err != nil {
		abortWithError(c, invalidBody(fmt.Errorf("start: %w", err)))
		return
	}
	end, err := ParseTimestamp(c.Query("end"))
	if err != nil {
		abortWithError(c, invalidBody(fmt.Errorf("end: %w", err)))
		return
	}
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			abortWithError(c, invalidBody(fmt.Errorf("limit: %w", err)))
			return
		}
	}
	format, err := reports.ParseFormat(c.Query("format"))
	if err != nil {
		abortWithError(c, invalidFormat(err))
		return
	}

	resp, err := h.svc.Range(c.Request.Context(), start, end, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	rows := lo.Map(resp.Items, func(item Item, _ int) []string {
		return []string{item.Fecha, strconv.FormatFloat(item.Valor, 'f', -1, 64)}
	})
	content, err := reports.GenerateReport(format, []string{"fecha", "valor"}, rows,
		reports.WithTitle(fmt.Sprintf("Dólar %s a %s", start.UTC().Format(time.DateOnly), end.UTC().Format(time.DateOnly))),
		reports.WithSheetName("dolar"))
	if err != nil {
		h.fail(c, ErrExportFailed.WithCause(err))
		return
	}

	filename := fmt.Sprintf("dolar_%s_%s.%s", start.UTC().Format("20060102T150405"), end.UTC().Format("20060102T150405"), format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), content)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var apiErr *errors.Error
	if !stderrors.As(err, &apiErr) {
		apiErr = ErrQueryFailed.WithCause(err)
	}
	if apiErr.GetStatusCode() >= http.StatusInternalServerError {
		h.lg.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	abortWithError(c, apiErr)
}

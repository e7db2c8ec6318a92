package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"waste-analytics-service/internal/ai"
	"waste-analytics-service/internal/http/middleware"
	"waste-analytics-service/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	analytics *service.AnalyticsService
	ingestion *service.IngestionService
	reports   *service.ReportService
	log       zerolog.Logger
}

func NewHandler(analytics *service.AnalyticsService, ingestion *service.IngestionService, reports *service.ReportService, log zerolog.Logger) *Handler {
	return &Handler{analytics: analytics, ingestion: ingestion, reports: reports, log: log}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := r.Group("/analytics")
	protected.Use(authMiddleware)

	protected.GET("/datasets", h.getDatasets)
	protected.GET("/dashboard", h.getDashboard)
	protected.GET("/vehicles", h.listVehicles)
	protected.GET("/vehicles/:id", h.getVehicle)
	protected.GET("/drivers", h.listDrivers)
	protected.GET("/areas", h.listAreas)
	protected.GET("/financial", h.getFinancial)
	protected.GET("/export", h.exportWorkbook)
	protected.POST("/reports", h.createReport)
	protected.POST("/reports/stream", h.streamReport)
	protected.POST("/chat", h.chat)
	protected.POST("/routes", h.suggestRoutes)

	admin := r.Group("/admin")
	admin.Use(authMiddleware, middleware.RequireAdmin())
	admin.POST("/datasets/reload", h.reloadDatasets)
	admin.GET("/datasets/history", h.listHistory)
}

func (h *Handler) getDatasets(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	info, err := h.analytics.GetDatasets(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(info))
}

func (h *Handler) getDashboard(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	dashboard, err := h.analytics.GetDashboard(c.Request.Context(), principal, parseQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(dashboard))
}

func (h *Handler) listVehicles(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	vehicles, err := h.analytics.GetVehicles(c.Request.Context(), principal, parseQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicles))
}

func (h *Handler) getVehicle(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	vehicle, err := h.analytics.GetVehicle(c.Request.Context(), principal, parseQuery(c), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) listDrivers(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	drivers, err := h.analytics.GetDrivers(c.Request.Context(), principal, parseQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(drivers))
}

func (h *Handler) listAreas(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	areas, err := h.analytics.GetAreas(c.Request.Context(), principal, parseQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(areas))
}

func (h *Handler) getFinancial(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	financial, err := h.analytics.GetFinancial(c.Request.Context(), principal, parseQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(financial))
}

func (h *Handler) exportWorkbook(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	f, filename, err := h.analytics.Export(c.Request.Context(), principal, parseQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer func() { _ = f.Close() }()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

type reportBody struct {
	ai.ReportRequest
	CompareYear string   `json:"compare_year"`
	Filter      []string `json:"vehicles_filter"`
	Months      []string `json:"months"`
}

func (b reportBody) params() service.QueryParams {
	return service.QueryParams{
		Year:        b.Year,
		CompareYear: b.CompareYear,
		Vehicles:    b.Filter,
		Months:      b.Months,
	}
}

func (h *Handler) createReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var body reportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	text, err := h.reports.Report(c.Request.Context(), principal, body.params(), body.ReportRequest)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"analysis": text}))
}

func (h *Handler) streamReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var body reportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	ch, err := h.reports.StreamReport(c.Request.Context(), principal, body.params(), body.ReportRequest)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.relay(c, ch)
}

type chatBody struct {
	ai.ChatRequest
	CompareYear string   `json:"compare_year"`
	Filter      []string `json:"vehicles_filter"`
	Months      []string `json:"months"`
}

func (h *Handler) chat(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	params := service.QueryParams{Year: body.Year, CompareYear: body.CompareYear, Vehicles: body.Filter, Months: body.Months}
	ch, err := h.reports.Chat(c.Request.Context(), principal, params, body.ChatRequest)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.relay(c, ch)
}

func (h *Handler) suggestRoutes(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req ai.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	routes, err := h.reports.SuggestRoutes(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(routes))
}

func (h *Handler) reloadDatasets(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	info, err := h.ingestion.Reload(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(info))
}

func (h *Handler) listHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.ingestion.History(c.Request.Context(), principal, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(history))
}

// relay forwards AI chunks as server-sent events. The stream ends with a
// "done" event, or an "error" event once headers are already written.
func (h *Handler) relay(c *gin.Context, ch <-chan ai.Chunk) {
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-ch:
			if !ok {
				c.SSEvent("done", "[DONE]")
				c.Writer.Flush()
				return
			}
			if chunk.Err != nil {
				h.log.Warn().Err(chunk.Err).Str("request_id", middleware.RequestID(c)).Msg("ai stream failed")
				c.SSEvent("error", gin.H{"error": userMessage(chunk.Err)})
				c.Writer.Flush()
				return
			}
			c.SSEvent("message", gin.H{"text": chunk.Text})
			c.Writer.Flush()
		}
	}
}

func parseQuery(c *gin.Context) service.QueryParams {
	return service.QueryParams{
		Year:        strings.TrimSpace(c.Query("year")),
		CompareYear: strings.TrimSpace(c.Query("compare_year")),
		Vehicles:    splitCSV(c.Query("vehicles")),
		Months:      splitCSV(c.Query("months")),
	}
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoData):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidFilter), errors.Is(err, ai.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, ai.ErrUpstream):
		h.log.Warn().Err(err).Str("request_id", middleware.RequestID(c)).Msg("ai upstream error")
		c.JSON(http.StatusBadGateway, errorResponse(userMessage(err)))
	default:
		h.log.Error().Err(err).Str("request_id", middleware.RequestID(c)).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func userMessage(err error) string {
	if errors.Is(err, ai.ErrUpstream) {
		return "the analysis service is unavailable, please try again later"
	}
	return "internal error"
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}

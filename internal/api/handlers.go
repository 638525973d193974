package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"arvcalc/config"
	"arvcalc/internal/analysis"
	"arvcalc/internal/database"
	"arvcalc/internal/geo"
	"arvcalc/internal/models"
	"arvcalc/internal/queue"
)

type Handler struct {
	db      *database.Database
	service *analysis.Service
	queue   *queue.AnalysisQueue
	markets *config.MarketTable
	logger  *logrus.Logger
	now     func() time.Time
}

type BatchRequest struct {
	Requests []models.AnalysisRequest `json:"requests" binding:"required"`
}

// NewHandler wires the HTTP surface. q may be nil when batch processing
// is disabled.
func NewHandler(db *database.Database, service *analysis.Service, q *queue.AnalysisQueue, markets *config.MarketTable, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:      db,
		service: service,
		queue:   q,
		markets: markets,
		logger:  logger,
		now:     time.Now,
	}
}

// Analyze runs one analysis synchronously and stores the report
func (h *Handler) Analyze(c *gin.Context) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse analysis request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	report, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "Failed to run analysis")
		return
	}

	if err := h.db.SaveReport(report); err != nil {
		h.logger.WithError(err).Error("Failed to save analysis")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save analysis"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Sample runs the built-in demonstration request without storing it
func (h *Handler) Sample(c *gin.Context) {
	report, err := h.service.Analyze(c.Request.Context(), analysis.SampleRequest(h.now()))
	if err != nil {
		h.writeError(c, err, "Failed to run sample analysis")
		return
	}

	c.JSON(http.StatusOK, report)
}

// SubmitBatch queues requests for background processing
func (h *Handler) SubmitBatch(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Batch processing is disabled"})
		return
	}

	var batch BatchRequest
	if err := c.ShouldBindJSON(&batch); err != nil || len(batch.Requests) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	jobIDs := make([]string, 0, len(batch.Requests))
	for _, req := range batch.Requests {
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		if err := h.queue.Push(&queue.Job{ID: req.ID, Request: req}); err != nil {
			h.logger.WithError(err).WithField("accepted", len(jobIDs)).Warn("Batch submission stopped")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   err.Error(),
				"job_ids": jobIDs,
			})
			return
		}
		jobIDs = append(jobIDs, req.ID)
	}

	c.JSON(http.StatusAccepted, gin.H{"job_ids": jobIDs})
}

func (h *Handler) ListAnalyses(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	summaries, err := h.db.ListAnalyses(limit)
	if err != nil {
		h.writeError(c, err, "Failed to list analyses")
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// GetAnalysis returns a stored report, or the summary of a failed run
func (h *Handler) GetAnalysis(c *gin.Context) {
	id := c.Param("id")
	report, err := h.db.GetReport(id)
	if errors.Is(err, database.ErrAnalysisFailed) {
		summary, err := h.db.GetSummary(id)
		if err != nil {
			h.writeError(c, err, "Failed to get analysis")
			return
		}
		c.JSON(http.StatusOK, summary)
		return
	}
	if err != nil {
		h.writeError(c, err, "Failed to get analysis")
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetAnalysisMap returns the target, comps and search area as GeoJSON
func (h *Handler) GetAnalysisMap(c *gin.Context) {
	report, err := h.db.GetReport(c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to get analysis")
		return
	}

	fc := geo.ComparablesFeatureCollection(report.Target, report.Comparables, report.Search.RadiusMiles)
	data, err := fc.MarshalJSON()
	if err != nil {
		h.writeError(c, err, "Failed to encode map")
		return
	}

	c.Data(http.StatusOK, "application/geo+json", data)
}

func (h *Handler) SaveProperties(c *gin.Context) {
	var records []models.PropertyRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		h.logger.WithError(err).Error("Failed to parse properties")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.db.SaveProperties(records); err != nil {
		h.writeError(c, err, "Failed to save properties")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"saved": len(records)})
}

func (h *Handler) GetProperty(c *gin.Context) {
	property, err := h.db.GetProperty(c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to get property")
		return
	}

	c.JSON(http.StatusOK, property)
}

func (h *Handler) Health(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if h.queue != nil {
		status["queued_jobs"] = h.queue.Len()
	}
	c.JSON(http.StatusOK, status)
}

// writeError maps domain errors onto status codes
func (h *Handler) writeError(c *gin.Context, err error, message string) {
	switch {
	case models.IsInvalidInput(err), errors.Is(err, config.ErrInvalidMarket):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound), errors.Is(err, config.ErrMarketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrAnalysisFailed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

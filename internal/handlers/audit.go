package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/services"
	"github.com/go-authgate/deviceauth/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	// queryValueTrue represents the string "true" used in query parameters
	queryValueTrue = "true"

	// exportLimit caps the number of rows in one CSV export
	exportLimit = 10000

	defaultStatsWindow = 30 * 24 * time.Hour
)

// AuditHandler serves the admin audit log API
type AuditHandler struct {
	auditService *services.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

func parseTimeQuery(c *gin.Context, key string) time.Time {
	if v := c.Query(key); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseFilters reads the filter query parameters shared by list and export
func parseFilters(c *gin.Context) store.AuditLogFilters {
	filters := store.AuditLogFilters{
		EventType:    models.EventType(c.Query("event_type")),
		ActorUserID:  c.Query("actor_user_id"),
		ResourceType: models.ResourceType(c.Query("resource_type")),
		ResourceID:   c.Query("resource_id"),
		Severity:     models.EventSeverity(c.Query("severity")),
		ActorIP:      c.Query("actor_ip"),
		Search:       c.Query("search"),
		StartTime:    parseTimeQuery(c, "start_time"),
		EndTime:      parseTimeQuery(c, "end_time"),
	}

	if successStr := c.Query("success"); successStr != "" {
		success := successStr == queryValueTrue
		filters.Success = &success
	}
	return filters
}

func (h *AuditHandler) logAdminAction(
	c *gin.Context,
	event models.EventType,
	action string,
	details models.AuditDetails,
) {
	h.auditService.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     event,
		Severity:      models.SeverityInfo,
		Action:        action,
		Details:       details,
		Success:       true,
		RequestPath:   c.Request.URL.Path,
		RequestMethod: c.Request.Method,
		UserAgent:     c.Request.UserAgent(),
	})
}

// ListAuditLogs handles GET /api/admin/audit
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	params := store.NewPaginationParams(page, pageSize)
	filters := parseFilters(c)

	logs, pagination, err := h.auditService.GetAuditLogs(c.Request.Context(), params, filters)
	if err != nil {
		respondError(c, fmt.Errorf("failed to retrieve audit logs: %w", err))
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	h.logAdminAction(c, models.EventAuditLogViewed, "Viewed audit logs", models.AuditDetails{
		"page":      params.Page,
		"page_size": params.PageSize,
		"filters":   filters,
	})

	c.JSON(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": pagination,
	})
}

// GetAuditLogStats handles GET /api/admin/audit/stats. Without a time range
// it covers the last 30 days.
func (h *AuditHandler) GetAuditLogStats(c *gin.Context) {
	startTime := parseTimeQuery(c, "start_time")
	endTime := parseTimeQuery(c, "end_time")

	if startTime.IsZero() && endTime.IsZero() {
		endTime = time.Now().UTC()
		startTime = endTime.Add(-defaultStatsWindow)
	}

	stats, err := h.auditService.GetAuditLogStats(c.Request.Context(), startTime, endTime)
	if err != nil {
		respondError(c, fmt.Errorf("failed to retrieve audit log statistics: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":      stats,
		"start_time": startTime,
		"end_time":   endTime,
	})
}

// ExportAuditLogs handles GET /api/admin/audit/export
func (h *AuditHandler) ExportAuditLogs(c *gin.Context) {
	filters := parseFilters(c)
	params := store.PaginationParams{
		Page:     1,
		PageSize: exportLimit,
	}

	logs, _, err := h.auditService.GetAuditLogs(c.Request.Context(), params, filters)
	if err != nil {
		respondError(c, fmt.Errorf("failed to retrieve audit logs: %w", err))
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(
		"attachment; filename=audit_logs_%s.csv",
		time.Now().UTC().Format("2006-01-02"),
	))
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write([]string{
		"Event Time",
		"Event Type",
		"Severity",
		"Actor Email",
		"Actor IP",
		"Resource Type",
		"Resource ID",
		"Resource Name",
		"Action",
		"Success",
		"Error Message",
	}); err != nil {
		return
	}

	for _, entry := range logs {
		successStr := "Yes"
		if !entry.Success {
			successStr = "No"
		}

		if err := writer.Write([]string{
			entry.EventTime.Format(time.RFC3339),
			string(entry.EventType),
			string(entry.Severity),
			entry.ActorEmail,
			entry.ActorIP,
			string(entry.ResourceType),
			entry.ResourceID,
			entry.ResourceName,
			entry.Action,
			successStr,
			entry.ErrorMessage,
		}); err != nil {
			return
		}
	}

	h.logAdminAction(c, models.EventAuditLogExported, "Exported audit logs to CSV", models.AuditDetails{
		"record_count": len(logs),
		"filters":      filters,
	})
}

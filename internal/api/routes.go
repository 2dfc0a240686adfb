// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all API routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	// Health check
	e.GET("/health", h.HandleHealth)

	// Directory scan sessions
	scanGroup := e.Group("/api/scan")
	scanGroup.POST("", h.HandleStartScan)
	scanGroup.GET("/:scanId/status", h.HandleScanStatus)
	scanGroup.POST("/:scanId/cancel", h.HandleCancelScan)

	// Indexed logs
	logGroup := e.Group("/api/logs")
	logGroup.GET("", h.HandleListLogs)
	logGroup.GET("/:date/records", h.HandleDayRecords)
	logGroup.GET("/:date/records/msgpack", h.HandleDayRecordsMsgpack)
	logGroup.GET("/:date/chart", h.HandleDayChart)
}

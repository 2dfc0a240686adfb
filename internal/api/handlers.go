package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/okofen-viewer/backend/internal/models"
	"github.com/okofen-viewer/backend/internal/parser"
	"github.com/okofen-viewer/backend/internal/scan"
	"github.com/vmihailenco/msgpack/v5"
)

// Handler handles API requests.
type Handler struct {
	scans  *scan.Manager
	styles *parser.ChartStyles
}

// NewHandler creates a new API handler.
func NewHandler(scans *scan.Manager, styles *parser.ChartStyles) *Handler {
	if styles == nil {
		styles = parser.DefaultChartStyles()
	}
	return &Handler{
		scans:  scans,
		styles: styles,
	}
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HandleStartScan opens a log directory: it verifies the directory is
// readable and starts an asynchronous scan session over it.
func (h *Handler) HandleStartScan(c echo.Context) error {
	var req struct {
		Directory string `json:"directory"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Directory == "" {
		return NewValidationError("directory")
	}

	// Fail fast on unreadable directories so the user sees the access
	// problem immediately; the index keeps its previous contents.
	info, err := os.Stat(req.Directory)
	if err != nil {
		return NewDirectoryAccessError(req.Directory, err)
	}
	if !info.IsDir() {
		return NewDirectoryAccessError(req.Directory, fmt.Errorf("not a directory"))
	}

	session, err := h.scans.StartScan(req.Directory)
	if err != nil {
		return NewInternalError("failed to start scan", err)
	}

	return c.JSON(http.StatusAccepted, session)
}

// HandleScanStatus returns the current status of a scan session.
func (h *Handler) HandleScanStatus(c echo.Context) error {
	id := c.Param("scanId")
	if id == "" {
		return NewValidationError("scanId")
	}

	session, ok := h.scans.GetScan(id)
	if !ok {
		return NewNotFoundError("scan", id)
	}

	return c.JSON(http.StatusOK, session)
}

// HandleCancelScan requests cancellation of a running scan. The scan
// commits nothing: the index stays exactly as it was before the scan.
func (h *Handler) HandleCancelScan(c echo.Context) error {
	id := c.Param("scanId")
	if id == "" {
		return NewValidationError("scanId")
	}

	if ok := h.scans.CancelScan(id); !ok {
		return NewNotFoundError("scan", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleListLogs returns the indexed log files sorted by date.
func (h *Handler) HandleListLogs(c echo.Context) error {
	files := h.scans.Index().Files()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"logs":  files,
		"total": len(files),
	})
}

// HandleDayRecords returns paginated records for one day's log.
func (h *Handler) HandleDayRecords(c echo.Context) error {
	day, apiErr := h.day(c)
	if apiErr != nil {
		return apiErr
	}

	page, pageSize := pagination(c)
	records, total := paginate(day.Records, page, pageSize)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":     day.Date,
		"columns":  models.ColumnNames,
		"records":  records,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// HandleDayRecordsMsgpack returns paginated records in MessagePack
// format, which is 30-50% smaller than JSON for log data.
func (h *Handler) HandleDayRecordsMsgpack(c echo.Context) error {
	day, apiErr := h.day(c)
	if apiErr != nil {
		return apiErr
	}

	page, pageSize := pagination(c)
	records, total := paginate(day.Records, page, pageSize)

	data, err := msgpack.Marshal(map[string]interface{}{
		"date":     day.Date,
		"columns":  models.ColumnNames,
		"records":  records,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleDayChart returns the FRT series and status shading bands for
// one day's log.
func (h *Handler) HandleDayChart(c echo.Context) error {
	day, apiErr := h.day(c)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, parser.BuildChart(day, h.styles))
}

// day resolves the :date path parameter to a parsed DayLog.
func (h *Handler) day(c echo.Context) (*models.DayLog, *APIError) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, NewValidationError("date")
	}

	day, err := h.scans.Day(date)
	if err != nil {
		var rowErr *parser.RowError
		switch {
		case errors.Is(err, scan.ErrNoLogForDate):
			return nil, NewNotFoundError("log", date)
		case errors.As(err, &rowErr):
			return nil, NewMalformedFileError(date, err)
		default:
			return nil, NewInternalError("failed to read log", err)
		}
	}
	return day, nil
}

func pagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 {
		pageSize = 500
	}
	return page, pageSize
}

func paginate(records []models.LogRecord, page, pageSize int) ([]models.LogRecord, int) {
	total := len(records)
	// Check against the last page before multiplying so huge
	// client-supplied values cannot overflow into a bad slice index.
	if total == 0 || page-1 > (total-1)/pageSize {
		return []models.LogRecord{}, total
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total || end < 0 {
		end = total
	}
	return records[start:end], total
}

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"hallbook/internal/metrics"
	"hallbook/internal/models"

	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"ID", "Name", "Email", "Phone", "Event Type", "Start Date", "End Date",
	"Guests", "Message", "Status", "User ID", "Created At",
}

// handleExport streams an xlsx of bookings for the admin dashboard,
// optionally filtered by status.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_bookings")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if _, err := s.svc.RequireAdmin(r.Context(), bearerToken(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	bookings, err := s.collectBookingsForExport(r, status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	f, err := buildExportWorkbook(bookings)
	if err != nil {
		s.logger.Error().Err(err).Msg("build export workbook")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_export_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("stream export workbook")
	}
}

// collectBookingsForExport pages through the listing until a short page,
// so the export is not capped by the listing page size.
func (s *HTTPServer) collectBookingsForExport(r *http.Request, status string) ([]*models.Booking, error) {
	var all []*models.Booking
	offset := 0
	for {
		page, err := s.svc.List(r.Context(), models.BookingFilter{
			Status: status,
			Limit:  models.MaxPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < models.MaxPageSize {
			return all, nil
		}
		offset += models.MaxPageSize
	}
}

func buildExportWorkbook(bookings []*models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	const sheetName = "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 2
		message := ""
		if b.Message != nil {
			message = *b.Message
		}
		userID := ""
		if b.UserID != nil {
			userID = *b.UserID
		}
		values := []interface{}{
			b.ID, b.Name, b.Email, b.Phone, b.EventType,
			b.StartDate.String(), b.EndDate.String(),
			b.GuestCount, message, b.Status, userID,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "B", "C", 22)
	_ = f.SetColWidth(sheetName, "E", "G", 14)
	_ = f.SetColWidth(sheetName, "I", "I", 30)
	_ = f.SetColWidth(sheetName, "L", "L", 20)

	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

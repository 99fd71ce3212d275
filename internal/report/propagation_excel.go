package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	alertsSheet = "Propagation Alerts"
	zoneSheet   = "Affected Zone"
)

// AlertHeader 告警表头
var AlertHeader = []string{
	"Plot ID",
	"Disease ID",
	"Disease Name",
	"Risk Level",
	"Infected",
	"Total Plants",
	"Infection Ratio",
	"Adjacent Healthy",
	"Recommendations",
	"Detected At",
}

// ZoneHeader 受影响区域表头
var ZoneHeader = []string{
	"Disease ID",
	"Row",
	"Column",
	"Plant ID",
	"Status",
}

// GeneratePropagationReport 生成地块传播分析 Excel（告警一张表，受影响格子一张表）
func GeneratePropagationReport(plotID string, alerts []models.PropagationAlert) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo 之前不能关闭文件

	index, err := f.NewSheet(alertsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(zoneSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E8F5E9"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, alertsSheet, AlertHeader, headerStyle, []float64{38, 20, 25, 12, 10, 12, 15, 16, 80, 22}); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeHeader(f, zoneSheet, ZoneHeader, headerStyle, []float64{20, 8, 8, 38, 18}); err != nil {
		f.Close()
		return nil, err
	}

	zoneRow := 2
	for i, alert := range alerts {
		row := i + 2 // 第1行是表头
		values := []interface{}{
			plotID,
			alert.DiseaseID,
			alert.DiseaseName,
			string(alert.RiskLevel),
			alert.InfectedCount,
			alert.TotalPlants,
			fmt.Sprintf("%.1f%%", alert.InfectionRatio*100),
			alert.AdjacentHealthyCount,
			strings.Join(alert.Recommendations, "; "),
			alert.DetectedAt.UTC().Format(time.RFC3339),
		}
		if err := writeRow(f, alertsSheet, row, values); err != nil {
			f.Close()
			return nil, err
		}

		for _, cell := range alert.AffectedZone {
			if err := writeRow(f, zoneSheet, zoneRow, []interface{}{
				alert.DiseaseID,
				cell.Row,
				cell.Column,
				cell.PlantID,
				string(cell.Status),
			}); err != nil {
				f.Close()
				return nil, err
			}
			zoneRow++
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// writeHeader 写入表头、列宽并冻结首行
func writeHeader(f *excelize.File, sheet string, headers []string, style int, widths []float64) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(widths) {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(sheet, name, name, widths[col]); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

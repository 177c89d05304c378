// Package export renders report tables as SpreadsheetML 2003 workbooks,
// the XML format Excel and LibreOffice open without conversion.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Dan9191/coop-ledger/internal/report"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

const (
	spreadsheetNS = "urn:schemas-microsoft-com:office:spreadsheet"
	// ContentType is the MIME type of rendered workbooks
	ContentType = "application/vnd.ms-excel"
	// Extension is the file extension of rendered workbooks
	Extension = ".xml"
)

// WorkbookSink writes each report as a workbook file under a directory
type WorkbookSink struct {
	dir string
}

var _ report.Sink = (*WorkbookSink)(nil)

// NewWorkbookSink initializes a sink writing into dir
func NewWorkbookSink(dir string) *WorkbookSink {
	return &WorkbookSink{dir: dir}
}

// Write renders tables into <dir>/<name>.xml and returns the file path
func (s *WorkbookSink) Write(ctx context.Context, name string, tables []report.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(s.dir, name+Extension)
	if err := Render(tables).WriteToFile(path); err != nil {
		return "", fmt.Errorf("failed to write workbook %s: %w", path, err)
	}
	return path, nil
}

// Encode renders tables into workbook bytes
func Encode(tables []report.Table) ([]byte, error) {
	b, err := Render(tables).WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return b, nil
}

// Render builds the workbook document, one Worksheet per table
func Render(tables []report.Table) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateProcInst("mso-application", `progid="Excel.Sheet"`)

	wb := doc.CreateElement("Workbook")
	wb.CreateAttr("xmlns", spreadsheetNS)
	wb.CreateAttr("xmlns:ss", spreadsheetNS)

	styles := wb.CreateElement("Styles")
	header := styles.CreateElement("Style")
	header.CreateAttr("ss:ID", "header")
	header.CreateElement("Font").CreateAttr("ss:Bold", "1")
	date := styles.CreateElement("Style")
	date.CreateAttr("ss:ID", "date")
	date.CreateElement("NumberFormat").CreateAttr("ss:Format", "yyyy\\-mm\\-dd")

	for _, t := range tables {
		ws := wb.CreateElement("Worksheet")
		ws.CreateAttr("ss:Name", t.Sheet)
		table := ws.CreateElement("Table")

		row := table.CreateElement("Row")
		for _, h := range t.Header {
			cell := row.CreateElement("Cell")
			cell.CreateAttr("ss:StyleID", "header")
			data := cell.CreateElement("Data")
			data.CreateAttr("ss:Type", "String")
			data.SetText(h)
		}

		for _, values := range t.Rows {
			row := table.CreateElement("Row")
			for _, v := range values {
				addCell(row, v)
			}
		}
	}

	doc.Indent(2)
	return doc
}

func addCell(row *etree.Element, v any) {
	cell := row.CreateElement("Cell")
	data := cell.CreateElement("Data")

	kind, text := "String", ""
	switch x := v.(type) {
	case nil:
	case string:
		text = x
	case int:
		kind, text = "Number", strconv.Itoa(x)
	case int64:
		kind, text = "Number", strconv.FormatInt(x, 10)
	case decimal.Decimal:
		kind, text = "Number", x.String()
	case time.Time:
		cell.CreateAttr("ss:StyleID", "date")
		kind, text = "DateTime", x.Format("2006-01-02T15:04:05.000")
	case fmt.Stringer:
		text = x.String()
	default:
		text = fmt.Sprint(x)
	}
	data.CreateAttr("ss:Type", kind)
	data.SetText(text)
}

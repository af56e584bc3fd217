package core

// decode.go turns an uploaded file into ordered raw rows.
//
// The format is chosen from the filename suffix:
//   - .csv: comma-separated text, first record is the header
//   - .xls, .xlsx: first sheet of the workbook, first row is the header
//
// Workbooks starting with the OLE2 compound file signature are read as
// BIFF8 (Excel 97-2003) whatever their suffix; the rest go to excelize.
// Anything else fails with ErrUnsupportedFormat. Parser failures wrap
// ErrParse. A file without a header yields no rows.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/richardlehane/mscfb"
	"github.com/xuri/excelize/v2"
)

// utf8BOM is prepended by Excel and other Windows tools when saving CSV as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// cfbSignature opens every OLE2 compound file, including BIFF8 workbooks.
var cfbSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// BIFF8 sheets are at most 256 columns wide.
const legacyMaxColumns = 256

// SupportedExtensions lists the filename suffixes Decode accepts.
var SupportedExtensions = []string{".csv", ".xls", ".xlsx"}

// Decode parses data according to the suffix of filename.
func Decode(data []byte, filename string) ([]RawRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return decodeCSV(data)
	case ".xls", ".xlsx":
		if bytes.HasPrefix(data, cfbSignature) {
			return decodeLegacyWorkbook(data)
		}
		return decodeSpreadsheet(data)
	default:
		return nil, fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedFormat,
			filepath.Base(filename), strings.Join(SupportedExtensions, ", "))
	}
}

func decodeCSV(data []byte) ([]RawRow, error) {
	data = sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid csv: %v", ErrParse, err)
	}
	header = append([]string(nil), header...)

	var rows []RawRow
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid csv: %v", ErrParse, err)
		}
		if isEmptyRow(record) {
			continue
		}
		rows = append(rows, project(header, record, len(rows)+2))
	}
	return rows, nil
}

func decodeSpreadsheet(data []byte) ([]RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrParse, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrParse, sheets[0], err)
	}
	return rowsFromRecords(records), nil
}

// decodeLegacyWorkbook reads the first sheet of a BIFF8 workbook. The
// container is walked with mscfb before extrame/xls parses it, since the
// latter exits the process on some broken sector chains.
func decodeLegacyWorkbook(data []byte) (rows []RawRow, err error) {
	if err := checkCompoundFile(data); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: malformed xls workbook: %v", ErrParse, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: open xls workbook: %v", ErrParse, err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}

	header := trimTrailingEmpty(legacyRow(sheet, 0, legacyMaxColumns))
	if len(header) == 0 {
		return nil, nil
	}
	records := make([][]string, 0, int(sheet.MaxRow)+1)
	records = append(records, header)
	for i := 1; i <= int(sheet.MaxRow); i++ {
		records = append(records, legacyRow(sheet, i, len(header)))
	}
	return rowsFromRecords(records), nil
}

// checkCompoundFile confirms data holds a readable workbook stream.
func checkCompoundFile(data []byte) error {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: open xls container: %v", ErrParse, err)
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		if _, err := io.Copy(io.Discard, entry); err != nil {
			return fmt.Errorf("%w: read xls workbook stream: %v", ErrParse, err)
		}
		return nil
	}
	return fmt.Errorf("%w: xls container has no workbook stream", ErrParse)
}

// legacyRow returns the cells of row i, at least width of them. Rows the
// sheet never stored come back nil.
func legacyRow(sheet *xls.WorkSheet, i, width int) (cells []string) {
	defer func() {
		// WorkSheet.Row dereferences a nil row for gaps.
		if recover() != nil {
			cells = nil
		}
	}()

	row := sheet.Row(i)
	if n := row.LastCol(); n > width {
		width = n
	}
	cells = make([]string, width)
	for c := range cells {
		cells[c] = row.Col(c)
	}
	return cells
}

func trimTrailingEmpty(cells []string) []string {
	for len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// rowsFromRecords treats records[0] as the header and projects the rest,
// skipping blank rows.
func rowsFromRecords(records [][]string) []RawRow {
	if len(records) == 0 {
		return nil
	}
	header := records[0]
	rows := make([]RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if isEmptyRow(record) {
			continue
		}
		rows = append(rows, project(header, record, len(rows)+2))
	}
	return rows
}

// project pairs a record with the header. Short records yield empty values;
// cells beyond the header are kept under an empty header and ignored later.
func project(header, record []string, line int) RawRow {
	n := len(header)
	if len(record) > n {
		n = len(record)
	}
	cols := make([]Column, 0, n)
	for i := 0; i < n; i++ {
		var c Column
		if i < len(header) {
			c.Header = header[i]
		}
		if i < len(record) {
			c.Value = record[i]
		}
		cols = append(cols, c)
	}
	return RawRow{Line: line, Columns: cols}
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}
	return buf.Bytes()
}

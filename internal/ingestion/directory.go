package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/catalog"
	"github.com/healthnet/backend/pkg/logger"
)

// ParseHospitalDirectory extracts hospital rows from a published HTML
// directory page. The first table carrying at least seven columns is treated
// as the directory, with columns in the order: id, name, location, specialty,
// beds available, latitude, longitude. Header rows (th cells or a
// non-numeric first column) are skipped.
func ParseHospitalDirectory(r io.Reader) ([]catalog.Hospital, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directory HTML: %w", err)
	}

	var hospitals []catalog.Hospital
	var rowErr error

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return true
		}

		parsed := 0
		rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() < 7 {
				return true
			}

			fields := make([]string, cells.Length())
			cells.Each(func(j int, cell *goquery.Selection) {
				fields[j] = strings.TrimSpace(cell.Text())
			})

			// A non-numeric first column is a header rendered with td cells.
			id, err := strconv.Atoi(fields[0])
			if err != nil {
				return true
			}

			beds, err := strconv.Atoi(fields[4])
			if err != nil {
				rowErr = fmt.Errorf("directory row %d: invalid beds value %q", i+1, fields[4])
				return false
			}
			if beds < 0 {
				rowErr = fmt.Errorf("directory row %d: beds_available must be non-negative, got %d", i+1, beds)
				return false
			}
			lat, err := strconv.ParseFloat(fields[5], 64)
			if err != nil {
				rowErr = fmt.Errorf("directory row %d: invalid latitude %q", i+1, fields[5])
				return false
			}
			lon, err := strconv.ParseFloat(fields[6], 64)
			if err != nil {
				rowErr = fmt.Errorf("directory row %d: invalid longitude %q", i+1, fields[6])
				return false
			}

			hospitals = append(hospitals, catalog.Hospital{
				ID:            id,
				Name:          fields[1],
				Location:      fields[2],
				Specialty:     fields[3],
				BedsAvailable: beds,
				Latitude:      lat,
				Longitude:     lon,
			})
			parsed++
			return true
		})

		// Stop at the first table that yielded data or an error.
		return rowErr == nil && parsed == 0
	})

	if rowErr != nil {
		return nil, rowErr
	}
	if len(hospitals) == 0 {
		return nil, fmt.Errorf("no hospital rows found in directory")
	}

	logger.Info("Hospital directory parsed", zap.Int("hospitals", len(hospitals)))

	return hospitals, nil
}

// WriteHospitalsCSV writes hospitals to dir in the layout LoadCSV expects.
func WriteHospitalsCSV(dir string, hospitals []catalog.Hospital) error {
	path := filepath.Join(dir, catalog.HospitalsFile)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"hospital_id", "name", "location", "specialty", "beds_available", "latitude", "longitude"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, h := range hospitals {
		record := []string{
			strconv.Itoa(h.ID),
			h.Name,
			h.Location,
			h.Specialty,
			strconv.Itoa(h.BedsAvailable),
			strconv.FormatFloat(h.Latitude, 'f', -1, 64),
			strconv.FormatFloat(h.Longitude, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write hospital %d: %w", h.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	logger.Info("Hospitals CSV written", zap.String("path", path), zap.Int("hospitals", len(hospitals)))

	return nil
}

// Package ingest parses the dispatcher's planning CSV export into
// bookings. The export is `;`-separated, Dutch-labelled, latin1 or UTF-8
// encoded, with local (Europe/Amsterdam) times; bookings come out with
// UTC timestamps and (0, 0) coordinate placeholders for the geocoder.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// Column headers of the planning export.
const (
	colRideID        = "Rit ID"
	colDepartureTime = "Vertrektijd"
	colArrivalTime   = "Aankomsttijd"
	colPassengers    = "Passagiers"

	colPickupStreet = "Vertrek Straat"
	colPickupNumber = "Vertrek Huisnummer"
	colPickupZip    = "Vertrek Postcode"
	colPickupCity   = "Vertrek Stad"

	colDeliveryStreet = "Aankomst Straat"
	colDeliveryNumber = "Aankomst Huisnummer"
	colDeliveryZip    = "Aankomst Postcode"
	colDeliveryCity   = "Aankomst Stad"

	colCustomerInfix = "Tussenvoegsel Hoofdklant"
	colCustomerName  = "Achternaam Hoofdklant"
)

// timeLayout is the export's local time format, e.g. "22-07-2025 07:21".
const timeLayout = "02-01-2006 15:04"

// ErrEmptyFile is returned for zero-byte uploads.
var ErrEmptyFile = errors.New("ingest: file content is empty")

// ParseCSV converts a planning export into bookings. Rows missing either
// time are rejected; unknown extra columns are ignored.
func ParseCSV(content []byte) ([]model.Booking, error) {
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	text, err := decode(content)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = ';'
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: invalid CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("ingest: no data rows")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}

	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		return nil, fmt.Errorf("ingest: load timezone: %w", err)
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	bookings := make([]model.Booking, 0, len(records)-1)
	for rowNum, row := range records[1:] {
		rideID := field(row, colRideID)

		pickupAt, err := parseLocalTime(field(row, colDepartureTime), amsterdam)
		if err != nil {
			return nil, fmt.Errorf("ingest: row %d (ride %s): departure time: %w", rowNum+2, rideID, err)
		}
		deliverAt, err := parseLocalTime(field(row, colArrivalTime), amsterdam)
		if err != nil {
			return nil, fmt.Errorf("ingest: row %d (ride %s): arrival time: %w", rowNum+2, rideID, err)
		}

		passengers := 0
		if raw := field(row, colPassengers); raw != "" {
			passengers, err = strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("ingest: row %d (ride %s): passengers %q", rowNum+2, rideID, raw)
			}
		}

		b := model.Booking{
			ID:         rideID,
			Customer:   joinNonEmpty(field(row, colCustomerInfix), field(row, colCustomerName)),
			Passengers: passengers,
			PickupTime: pickupAt,
			PickupAddress: joinNonEmpty(
				field(row, colPickupStreet), field(row, colPickupNumber),
				field(row, colPickupZip), field(row, colPickupCity),
			),
			DeliveryTime: deliverAt,
			DeliveryAddress: joinNonEmpty(
				field(row, colDeliveryStreet), field(row, colDeliveryNumber),
				field(row, colDeliveryZip), field(row, colDeliveryCity),
			),
			// Coordinates stay zero; the geocoder fills them.
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("ingest: row %d: %w", rowNum+2, err)
		}
		bookings = append(bookings, b)
	}

	return bookings, nil
}

// decode returns the content as UTF-8, falling back to latin1 when the
// bytes are not valid UTF-8 (older exports are Windows-encoded).
func decode(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("ingest: decode latin1: %w", err)
	}
	return string(decoded), nil
}

func parseLocalTime(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing")
	}
	t, err := time.ParseInLocation(timeLayout, raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

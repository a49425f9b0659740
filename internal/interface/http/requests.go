package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oksasatya/tasko/internal/domain/entity"
)

var errLocationPoint = fmt.Errorf("%w: location needs lat and lng", entity.ErrValidation)

// locationRequest is the location body shared by sign-up and task creation.
// Clients send {lat, lng}; a GeoJSON-style coordinates pair [lng, lat] is
// accepted as well.
type locationRequest struct {
	IsRemote    bool      `json:"isRemote"`
	Lat         *float64  `json:"lat"`
	Lng         *float64  `json:"lng"`
	Coordinates []float64 `json:"coordinates" binding:"omitempty,len=2"`
	Address     string    `json:"address"`
}

func (r *locationRequest) point() (lng, lat float64, ok bool) {
	switch {
	case r.Lat != nil && r.Lng != nil:
		return *r.Lng, *r.Lat, true
	case len(r.Coordinates) == 2:
		return r.Coordinates[0], r.Coordinates[1], true
	}
	return 0, 0, false
}

// lenientInt decodes a JSON number or a numeric string, as form inputs send.
type lenientInt int

func (n *lenientInt) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %q is not a whole number", entity.ErrValidation, raw)
	}
	*n = lenientInt(v)
	return nil
}

// deadlineLayouts are tried in order. The last two are what a
// datetime-local input submits; they carry no zone and are read as UTC.
var deadlineLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// lenientTime decodes RFC 3339 or a zone-less local date-time.
type lenientTime struct{ time.Time }

func (t *lenientTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: deadline must be a date-time string", entity.ErrValidation)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if v, err := time.Parse(layout, raw); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not a date-time", entity.ErrValidation, raw)
}

package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	defaultDatasetTTL     = 10 * time.Minute
	defaultDatasetCleanup = 30 * time.Minute
)

type FaultCodeRecord struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	CommonCauses []string `json:"common_causes"`
	SafeChecks   []string `json:"safe_checks"`
}

type FitmentRecord struct {
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	Make            string `json:"make"`
	Model           string `json:"model"`
	FromYearID      yearID `json:"from_year_id"`
	ToYearID        yearID `json:"to_year_id"`
	EngineDetail    string `json:"engine_detail"`
	UDEF            any    `json:"UDEF,omitempty"`
	FitmentNotes    string `json:"fitment_notes"`
	FitmentNotesAlt string `json:"Fitment notes"`
	Concat          string `json:"concat"`
}

func (r FitmentRecord) notes() string {
	if r.FitmentNotesAlt != "" {
		return r.FitmentNotesAlt
	}
	return r.FitmentNotes
}

func (r FitmentRecord) yearRange() (int, int) {
	from := r.FromYearID.or(0)
	to := r.ToYearID.or(9999)
	return from, to
}

// yearID accepts a JSON number, a numeric string or null. Zero means unset.
type yearID int

func (y *yearID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		*y = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		*y = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid year %q: %w", raw, err)
	}
	*y = yearID(int(f))
	return nil
}

func (y yearID) or(def int) int {
	if y == 0 {
		return def
	}
	return int(y)
}

// Datasets loads the static lookup data. Files are read-only at request time
// and cached per path.
type Datasets struct {
	faultCodesPath string
	fitmentPath    string
	cache          *cache.Cache
}

type DatasetsOption func(*Datasets)

func WithCacheTTL(ttl time.Duration) DatasetsOption {
	return func(d *Datasets) {
		d.cache = cache.New(ttl, defaultDatasetCleanup)
	}
}

func NewDatasets(faultCodesPath, fitmentPath string, opts ...DatasetsOption) *Datasets {
	d := &Datasets{
		faultCodesPath: strings.TrimSpace(faultCodesPath),
		fitmentPath:    strings.TrimSpace(fitmentPath),
		cache:          cache.New(defaultDatasetTTL, defaultDatasetCleanup),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// FaultCodes returns an empty map when the file does not exist.
func (d *Datasets) FaultCodes() (map[string]FaultCodeRecord, error) {
	key := "fault_codes:" + d.faultCodesPath
	if v, ok := d.cache.Get(key); ok {
		return v.(map[string]FaultCodeRecord), nil
	}

	db := map[string]FaultCodeRecord{}
	raw, err := os.ReadFile(d.faultCodesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return db, nil
		}
		return nil, fmt.Errorf("read fault codes: %w", err)
	}
	if err := json.Unmarshal(raw, &db); err != nil {
		return nil, fmt.Errorf("decode fault codes: %w", err)
	}

	d.cache.SetDefault(key, db)
	return db, nil
}

func (d *Datasets) Fitment() ([]FitmentRecord, error) {
	key := "fitment:" + d.fitmentPath
	if v, ok := d.cache.Get(key); ok {
		return v.([]FitmentRecord), nil
	}

	raw, err := os.ReadFile(d.fitmentPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("ecu_fitment.json not found at: %s", d.fitmentPath)
		}
		return nil, fmt.Errorf("read fitment data: %w", err)
	}
	var rows []FitmentRecord
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode fitment data: %w", err)
	}

	d.cache.SetDefault(key, rows)
	return rows, nil
}

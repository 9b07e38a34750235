package compositeconfig

import (
	"fmt"
	"time"
	_ "time/tzdata" // date_range.timezone on hosts without zoneinfo

	"github.com/wonny/gem/backend/internal/contracts"
)

// Config is the full setup of a compositing run. It is fixed before
// the first pixel is evaluated.
type Config struct {
	Meta               Meta      `yaml:"meta" json:"meta"`
	Bands              Bands     `yaml:"bands" json:"bands"`
	Measurements       int       `yaml:"measurements" json:"measurements"`
	DateRange          DateRange `yaml:"date_range" json:"date_range"`
	RoundCoefficientMs int64     `yaml:"round_coefficient_ms" json:"round_coefficient_ms"`
	Output             Output    `yaml:"output" json:"output"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Bands lists the bands requested from the host
type Bands struct {
	Output []string `yaml:"output" json:"output"`
	Helper []string `yaml:"helper" json:"helper"`
	Red    string   `yaml:"red" json:"red"`
	NIR    string   `yaml:"nir" json:"nir"`
}

// DateRange is the overall [start, end) range split into measurements
type DateRange struct {
	Start    string `yaml:"start" json:"start"` // YYYY-MM-DD or RFC3339
	End      string `yaml:"end" json:"end"`
	Timezone string `yaml:"timezone" json:"timezone"` // IANA name, empty = UTC
}

// Output defines raster sample types of the produced bands
type Output struct {
	BandSampleType     string `yaml:"band_sample_type" json:"band_sample_type"`
	ValCountSampleType string `yaml:"valcount_sample_type" json:"valcount_sample_type"`
}

// OutputSpec describes one output raster as declared to the host
type OutputSpec struct {
	ID         string               `json:"id"`
	Bands      int                  `json:"bands"`
	SampleType contracts.SampleType `json:"sampleType"`
}

// ValCountID is the output id of the per-interval valid count raster
const ValCountID = "valcount"

// Default returns the Sentinel-2 L2A max-NDVI setup: 12 bands, six
// bimonthly composites over 2020
func Default() *Config {
	return &Config{
		Meta: Meta{
			ConfigID: "s2_max_ndvi_2020",
			Version:  "1.0.0",
		},
		Bands: Bands{
			Output: []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B08", "B8A", "B09", "B11", "B12"},
			Helper: []string{contracts.HelperDataMask, contracts.HelperSCL, contracts.HelperCLM},
			Red:    "B04",
			NIR:    "B08",
		},
		Measurements: 6,
		DateRange: DateRange{
			Start:    "2020-01-01",
			End:      "2021-01-01",
			Timezone: "UTC",
		},
		RoundCoefficientMs: 1,
		Output: Output{
			BandSampleType:     string(contracts.SampleTypeUint16),
			ValCountSampleType: string(contracts.SampleTypeUint8),
		},
	}
}

// OutputBands returns the configured output bands in order
func (c *Config) OutputBands() []contracts.Band {
	bands := make([]contracts.Band, len(c.Bands.Output))
	for i, b := range c.Bands.Output {
		bands[i] = contracts.Band(b)
	}
	return bands
}

// RedBand returns the red band of the vegetation index
func (c *Config) RedBand() contracts.Band {
	return contracts.Band(c.Bands.Red)
}

// NIRBand returns the near-infrared band of the vegetation index
func (c *Config) NIRBand() contracts.Band {
	return contracts.Band(c.Bands.NIR)
}

// Start returns the parsed range start
func (c *Config) Start() (time.Time, error) {
	return parseDate(c.DateRange.Start)
}

// End returns the parsed range end
func (c *Config) End() (time.Time, error) {
	return parseDate(c.DateRange.End)
}

// Location returns the time zone boundaries and scene dates are aligned to
func (c *Config) Location() (*time.Location, error) {
	if c.DateRange.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.DateRange.Timezone)
}

// Granularity returns the interval boundary rounding step
func (c *Config) Granularity() time.Duration {
	return time.Duration(c.RoundCoefficientMs) * time.Millisecond
}

// BandSampleType returns the sample type of reflectance outputs
func (c *Config) BandSampleType() contracts.SampleType {
	return contracts.SampleType(c.Output.BandSampleType)
}

// ValCountSampleType returns the sample type of the valcount output
func (c *Config) ValCountSampleType() contracts.SampleType {
	return contracts.SampleType(c.Output.ValCountSampleType)
}

// InputBands returns every band requested from the host: outputs then helpers
func (c *Config) InputBands() []string {
	bands := make([]string, 0, len(c.Bands.Output)+len(c.Bands.Helper))
	bands = append(bands, c.Bands.Output...)
	return append(bands, c.Bands.Helper...)
}

// OutputSpecs declares one raster per output band plus the valcount raster,
// each holding one band per measurement
func (c *Config) OutputSpecs() []OutputSpec {
	specs := make([]OutputSpec, 0, len(c.Bands.Output)+1)
	for _, b := range c.Bands.Output {
		specs = append(specs, OutputSpec{
			ID:         b,
			Bands:      c.Measurements,
			SampleType: c.BandSampleType(),
		})
	}
	return append(specs, OutputSpec{
		ID:         ValCountID,
		Bands:      c.Measurements,
		SampleType: c.ValCountSampleType(),
	})
}

var dateLayouts = []string{"2006-01-02", time.RFC3339Nano}

// parseDate reads a range bound; plain dates are UTC midnight
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD or RFC3339)", s)
}

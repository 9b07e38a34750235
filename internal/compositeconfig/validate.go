package compositeconfig

import (
	"fmt"
	"time"

	"github.com/wonny/gem/backend/internal/contracts"
)

// MaxMeasurements bounds the number of intervals per run
const MaxMeasurements = 1000

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Bands ===
	if len(cfg.Bands.Output) == 0 {
		return ValidationError{"bands.output", "must not be empty"}
	}
	seen := make(map[string]bool, len(cfg.Bands.Output))
	for i, b := range cfg.Bands.Output {
		if !contracts.Band(b).IsKnown() {
			return ValidationError{fmt.Sprintf("bands.output[%d]", i), fmt.Sprintf("unknown band %q", b)}
		}
		if seen[b] {
			return ValidationError{fmt.Sprintf("bands.output[%d]", i), fmt.Sprintf("duplicate band %q", b)}
		}
		seen[b] = true
	}

	// the cascade reads all three helper bands
	helpers := make(map[string]bool, len(cfg.Bands.Helper))
	for i, h := range cfg.Bands.Helper {
		if !isHelper(h) {
			return ValidationError{fmt.Sprintf("bands.helper[%d]", i), fmt.Sprintf("unknown helper band %q", h)}
		}
		helpers[h] = true
	}
	for _, required := range contracts.HelperBands {
		if !helpers[required] {
			return ValidationError{"bands.helper", fmt.Sprintf("must include %s", required)}
		}
	}

	if !cfg.RedBand().IsKnown() {
		return ValidationError{"bands.red", fmt.Sprintf("unknown band %q", cfg.Bands.Red)}
	}
	if !cfg.NIRBand().IsKnown() {
		return ValidationError{"bands.nir", fmt.Sprintf("unknown band %q", cfg.Bands.NIR)}
	}
	if cfg.Bands.Red == cfg.Bands.NIR {
		return ValidationError{"bands", "red and nir must differ"}
	}

	// === Measurements ===
	if cfg.Measurements < 1 || cfg.Measurements > MaxMeasurements {
		return ValidationError{"measurements", fmt.Sprintf("must be in [1, %d]", MaxMeasurements)}
	}

	// === DateRange ===
	start, err := cfg.Start()
	if err != nil {
		return ValidationError{"date_range.start", err.Error()}
	}
	end, err := cfg.End()
	if err != nil {
		return ValidationError{"date_range.end", err.Error()}
	}
	if !start.Before(end) {
		return ValidationError{"date_range", "start must be before end"}
	}
	if _, err := cfg.Location(); err != nil {
		return ValidationError{"date_range.timezone", err.Error()}
	}

	// === Rounding ===
	if cfg.RoundCoefficientMs < 1 {
		return ValidationError{"round_coefficient_ms", "must be >= 1"}
	}
	if end.Sub(start) < time.Duration(cfg.Measurements)*cfg.Granularity() {
		return ValidationError{"round_coefficient_ms", "coarser than the interval length"}
	}

	// === Output ===
	if !cfg.BandSampleType().IsKnown() {
		return ValidationError{"output.band_sample_type", fmt.Sprintf("unknown sample type %q", cfg.Output.BandSampleType)}
	}
	switch cfg.ValCountSampleType() {
	case contracts.SampleTypeUint8, contracts.SampleTypeUint16:
	default:
		return ValidationError{"output.valcount_sample_type", "must be UINT8 or UINT16"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	start, errStart := cfg.Start()
	end, errEnd := cfg.End()
	if errStart == nil && errEnd == nil && cfg.Measurements > 0 {
		perInterval := end.Sub(start) / time.Duration(cfg.Measurements)
		if perInterval < 5*24*time.Hour {
			warnings = append(warnings, Warning{
				Code:    "SHORT_INTERVAL",
				Message: fmt.Sprintf("interval length %s is below the 5 day Sentinel-2 revisit", perInterval),
			})
		}
	}

	if cfg.Bands.Red != string(contracts.B04) || cfg.Bands.NIR != string(contracts.B08) {
		warnings = append(warnings, Warning{
			Code:    "NON_STANDARD_INDEX",
			Message: fmt.Sprintf("ranking by (%s-%s)/(%s+%s) instead of B08/B04 NDVI", cfg.Bands.NIR, cfg.Bands.Red, cfg.Bands.NIR, cfg.Bands.Red),
		})
	}

	if cfg.BandSampleType() == contracts.SampleTypeUint8 {
		warnings = append(warnings, Warning{
			Code:    "LOSSY_REFLECTANCE",
			Message: "UINT8 clamps reflectance DN above 255",
		})
	}

	return warnings
}

func isHelper(name string) bool {
	for _, h := range contracts.HelperBands {
		if name == h {
			return true
		}
	}
	return false
}

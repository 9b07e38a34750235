package s0_data

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/wonny/gem/backend/internal/contracts"
)

var (
	// ErrMisaligned is returned when the sample and scene lists differ in length
	ErrMisaligned = errors.New("samples and scenes are not aligned")

	// ErrUnknownBand is returned for sample keys that are neither a reflectance nor a helper band
	ErrUnknownBand = errors.New("unknown band")
)

// RawScene is a scene as delivered by the raster host
type RawScene struct {
	Date string `json:"date"`
}

// RawPixel is one pixel's host input: loosely typed samples plus a
// parallel list of scenes
type RawPixel struct {
	ID      string               `json:"id"`
	Samples []map[string]float64 `json:"samples"`
	Scenes  []RawScene           `json:"scenes"`
}

// sceneDateLayouts are tried in order by ParseSceneDate
var sceneDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Ingest validates a RawPixel once and converts it into typed observations
// ⭐ SSOT: 호스트 입력 검증은 여기서만
func Ingest(raw RawPixel) ([]contracts.Observation, error) {
	if len(raw.Samples) != len(raw.Scenes) {
		return nil, fmt.Errorf("%w: %d samples, %d scenes", ErrMisaligned, len(raw.Samples), len(raw.Scenes))
	}

	samples := make([]contracts.Sample, len(raw.Samples))
	for i, values := range raw.Samples {
		s, err := DecodeSample(values)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		samples[i] = s
	}

	scenes := make([]contracts.Scene, len(raw.Scenes))
	for i, rs := range raw.Scenes {
		date, err := ParseSceneDate(rs.Date)
		if err != nil {
			return nil, fmt.Errorf("scene %d: %w", i, err)
		}
		scenes[i] = contracts.Scene{Date: date}
	}

	return Zip(samples, scenes)
}

// Zip pairs samples with scenes by index
func Zip(samples []contracts.Sample, scenes []contracts.Scene) ([]contracts.Observation, error) {
	if len(samples) != len(scenes) {
		return nil, fmt.Errorf("%w: %d samples, %d scenes", ErrMisaligned, len(samples), len(scenes))
	}

	obs := make([]contracts.Observation, len(samples))
	for i := range samples {
		obs[i] = contracts.Observation{
			Index:  i,
			Sample: samples[i],
			Scene:  scenes[i],
		}
	}
	return obs, nil
}

// DecodeSample converts a band-name → value map into a typed Sample.
// Missing bands read as 0. Helper bands must be integers in [0, 255].
func DecodeSample(values map[string]float64) (contracts.Sample, error) {
	var s contracts.Sample

	for key, v := range values {
		switch key {
		case contracts.HelperDataMask:
			flag, err := helperValue(key, v)
			if err != nil {
				return s, err
			}
			s.DataMask = flag
		case contracts.HelperCLM:
			flag, err := helperValue(key, v)
			if err != nil {
				return s, err
			}
			s.CLM = flag
		case contracts.HelperSCL:
			code, err := helperValue(key, v)
			if err != nil {
				return s, err
			}
			s.SCL = code
		default:
			if !s.SetValue(contracts.Band(key), v) {
				return s, fmt.Errorf("%w: %q", ErrUnknownBand, key)
			}
		}
	}

	return s, nil
}

func helperValue(key string, v float64) (uint8, error) {
	if math.IsNaN(v) || v != math.Trunc(v) || v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("helper band %s: invalid value %v", key, v)
	}
	return uint8(v), nil
}

// ParseSceneDate parses a host acquisition date.
// Values without a zone are read as UTC.
func ParseSceneDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range sceneDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid scene date %q", s)
}

// Fingerprint hashes a pixel's samples and scenes, ignoring its ID.
// Equal inputs give equal fingerprints; map keys are encoded sorted.
func Fingerprint(raw RawPixel) (string, error) {
	data, err := json.Marshal(struct {
		Samples []map[string]float64 `json:"samples"`
		Scenes  []RawScene           `json:"scenes"`
	}{raw.Samples, raw.Scenes})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

package contracts

import "time"

// Band identifies a Sentinel-2 L2A reflectance band
type Band string

const (
	B01 Band = "B01"
	B02 Band = "B02"
	B03 Band = "B03"
	B04 Band = "B04" // red
	B05 Band = "B05"
	B06 Band = "B06"
	B07 Band = "B07"
	B08 Band = "B08" // near infrared
	B8A Band = "B8A"
	B09 Band = "B09"
	B11 Band = "B11"
	B12 Band = "B12"
)

// Helper (quality) band names as delivered by the raster host
const (
	HelperDataMask = "dataMask"
	HelperSCL      = "SCL"
	HelperCLM      = "CLM"
)

// AllBands lists every reflectance band a Sample can carry, in the
// canonical Sentinel-2 order
var AllBands = []Band{B01, B02, B03, B04, B05, B06, B07, B08, B8A, B09, B11, B12}

// HelperBands lists the quality bands a Sample can carry
var HelperBands = []string{HelperDataMask, HelperSCL, HelperCLM}

// IsKnown reports whether b is one of AllBands
func (b Band) IsKnown() bool {
	for _, known := range AllBands {
		if b == known {
			return true
		}
	}
	return false
}

// Sample is one scene's observation of one pixel
// ⭐ SSOT: 픽셀 관측값은 이 구조체로만 전달
type Sample struct {
	B01 float64 `json:"B01"`
	B02 float64 `json:"B02"`
	B03 float64 `json:"B03"`
	B04 float64 `json:"B04"`
	B05 float64 `json:"B05"`
	B06 float64 `json:"B06"`
	B07 float64 `json:"B07"`
	B08 float64 `json:"B08"`
	B8A float64 `json:"B8A"`
	B09 float64 `json:"B09"`
	B11 float64 `json:"B11"`
	B12 float64 `json:"B12"`

	DataMask uint8 `json:"dataMask"` // 1: pixel has data
	CLM      uint8 `json:"CLM"`      // 1: cloud detected
	SCL      uint8 `json:"SCL"`      // Sen2Cor scene classification
}

// Value returns the reflectance of band b; unknown bands read as 0
func (s Sample) Value(b Band) float64 {
	switch b {
	case B01:
		return s.B01
	case B02:
		return s.B02
	case B03:
		return s.B03
	case B04:
		return s.B04
	case B05:
		return s.B05
	case B06:
		return s.B06
	case B07:
		return s.B07
	case B08:
		return s.B08
	case B8A:
		return s.B8A
	case B09:
		return s.B09
	case B11:
		return s.B11
	case B12:
		return s.B12
	default:
		return 0
	}
}

// SetValue assigns the reflectance of band b and reports whether b is known
func (s *Sample) SetValue(b Band, v float64) bool {
	switch b {
	case B01:
		s.B01 = v
	case B02:
		s.B02 = v
	case B03:
		s.B03 = v
	case B04:
		s.B04 = v
	case B05:
		s.B05 = v
	case B06:
		s.B06 = v
	case B07:
		s.B07 = v
	case B08:
		s.B08 = v
	case B8A:
		s.B8A = v
	case B09:
		s.B09 = v
	case B11:
		s.B11 = v
	case B12:
		s.B12 = v
	default:
		return false
	}
	return true
}

// HasData reports whether the valid-data flag is set
func (s Sample) HasData() bool {
	return s.DataMask == 1
}

// CloudMasked reports whether the cloud-mask flag is set
func (s Sample) CloudMasked() bool {
	return s.CLM != 0
}

// Scene is one satellite overpass contributing a sample
type Scene struct {
	Date time.Time `json:"date"`
}

// Observation pairs a Sample with the Scene it came from.
// Index is the position in the host's original sample list.
type Observation struct {
	Index  int    `json:"index"`
	Sample Sample `json:"sample"`
	Scene  Scene  `json:"scene"`
}

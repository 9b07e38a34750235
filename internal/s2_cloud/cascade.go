package s2_cloud

import "github.com/wonny/gem/backend/internal/contracts"

// Scene classification values of the Sen2Cor processor (20m)
const (
	SCLNoData          uint8 = 0
	SCLDefective       uint8 = 1
	SCLCloudMediumProb uint8 = 8
	SCLCloudHighProb   uint8 = 9
)

// MinSamples is the smallest subset a level must keep to stop the cascade
const MinSamples = 2

// Level is a cascade level, 1 (strictest) to 4 (most permissive)
type Level int

const (
	LevelCLMStrict Level = iota + 1 // CLM clear, strict SCL
	LevelCLMLoose                   // CLM clear, loose SCL
	LevelSCLStrict                  // strict SCL only
	LevelSCLLoose                   // loose SCL only
)

// Levels lists every level in cascade order
var Levels = []Level{LevelCLMStrict, LevelCLMLoose, LevelSCLStrict, LevelSCLLoose}

var (
	strictExclude = []uint8{SCLNoData, SCLDefective, SCLCloudHighProb, SCLCloudMediumProb}
	looseExclude  = []uint8{SCLNoData, SCLDefective, SCLCloudHighProb}
)

func (l Level) String() string {
	switch l {
	case LevelCLMStrict:
		return "clm_scl_strict"
	case LevelCLMLoose:
		return "clm_scl_loose"
	case LevelSCLStrict:
		return "scl_strict"
	case LevelSCLLoose:
		return "scl_loose"
	default:
		return "unknown"
	}
}

// Accepts reports whether s passes the level's filter
func (l Level) Accepts(s contracts.Sample) bool {
	switch l {
	case LevelCLMStrict:
		return !s.CloudMasked() && !excluded(s.SCL, strictExclude)
	case LevelCLMLoose:
		return !s.CloudMasked() && !excluded(s.SCL, looseExclude)
	case LevelSCLStrict:
		return !excluded(s.SCL, strictExclude)
	case LevelSCLLoose:
		return !excluded(s.SCL, looseExclude)
	default:
		return false
	}
}

func excluded(scl uint8, set []uint8) bool {
	for _, v := range set {
		if scl == v {
			return true
		}
	}
	return false
}

// ApplyLevel returns the samples accepted by level l, order preserved
func ApplyLevel(l Level, samples []contracts.Sample) []contracts.Sample {
	kept := make([]contracts.Sample, 0, len(samples))
	for _, s := range samples {
		if l.Accepts(s) {
			kept = append(kept, s)
		}
	}
	return kept
}

// Cascade implements S2: the four-level cloud filter fallback
// ⭐ SSOT: 구름 필터 완화 순서는 여기서만
type Cascade struct{}

// NewCascade creates a cloud filter cascade
func NewCascade() *Cascade {
	return &Cascade{}
}

// Filter returns the first level's result holding at least MinSamples
// samples, together with that level. When no level gets there the
// most permissive level's result is returned as is, possibly empty.
func (c *Cascade) Filter(samples []contracts.Sample) ([]contracts.Sample, int) {
	var kept []contracts.Sample
	var level Level
	for _, level = range Levels {
		kept = ApplyLevel(level, samples)
		if len(kept) >= MinSamples {
			break
		}
	}
	return kept, int(level)
}

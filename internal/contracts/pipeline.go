package contracts

// Pipeline Stage 정의 (SSOT)
// 로그 필드와 메트릭 라벨에서 이 상수를 사용
//
// 파이프라인 흐름 (픽셀 단위):
//   S0 → S1 → S2 → S3 → S4 → S5
//   Ingest  Interval  Cloud  Selection  Composite  Output

// Stage represents a pipeline stage
type Stage string

const (
	// StageIngest S0: 입력 정렬 및 유효 데이터 필터
	// 위치: internal/s0_data/
	StageIngest Stage = "S0_INGEST"

	// StageInterval S1: 날짜 범위 분할 및 관측 버킷팅
	// 위치: internal/s1_interval/
	StageInterval Stage = "S1_INTERVAL"

	// StageCloud S2: 구름 마스크 단계적 완화
	// 위치: internal/s2_cloud/
	StageCloud Stage = "S2_CLOUD"

	// StageSelection S3: 최대 NDVI 관측 선택
	// 위치: internal/selection/
	StageSelection Stage = "S3_SELECTION"

	// StageComposite S4: 구간별 합성 및 배치 실행
	// 위치: internal/composite/
	StageComposite Stage = "S4_COMPOSITE"

	// StageOutput S5: 샘플 타입 인코딩 및 메타데이터
	// 위치: internal/metadata/
	StageOutput Stage = "S5_OUTPUT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageIngest:
		return "S0"
	case StageInterval:
		return "S1"
	case StageCloud:
		return "S2"
	case StageSelection:
		return "S3"
	case StageComposite:
		return "S4"
	case StageOutput:
		return "S5"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageIngest:
		return "입력 정렬/유효성"
	case StageInterval:
		return "구간 분할"
	case StageCloud:
		return "구름 필터"
	case StageSelection:
		return "최대 NDVI 선택"
	case StageComposite:
		return "구간 합성"
	case StageOutput:
		return "출력 인코딩/메타데이터"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageIngest,
		StageInterval,
		StageCloud,
		StageSelection,
		StageComposite,
		StageOutput,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

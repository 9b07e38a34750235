package compositeconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file and returns Config with raw bytes
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes and validates YAML config bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path, or returns Default() and its YAML when path is empty
func LoadOrDefault(path string) (*Config, []byte, error) {
	if path != "" {
		return Load(path)
	}

	cfg := Default()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, data, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// struct 직렬화로 필드 순서가 고정되어 해시가 재현 가능
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

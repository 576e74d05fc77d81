package master

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kamusis/baseline/internal/dimension"
)

// SidecarSuffix is appended to an image path to name its metadata file.
const SidecarSuffix = ".meta.yaml"

// sidecar is the on-disk form of dimension.Metadata.
type sidecar struct {
	Description map[string]string `yaml:"description"`
	Criteria    []string          `yaml:"criteria,omitempty"`
}

// SidecarPath returns the metadata path for imagePath.
func SidecarPath(imagePath string) string {
	return imagePath + SidecarSuffix
}

// EncodeMetadata renders m as sidecar YAML.
func EncodeMetadata(m dimension.Metadata) ([]byte, error) {
	sc := sidecar{Description: m.Description()}
	for _, d := range m.Criteria() {
		sc.Criteria = append(sc.Criteria, d.Name())
	}
	data, err := yaml.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal metadata: %w", err)
	}
	return data, nil
}

// DecodeMetadata parses sidecar YAML.
func DecodeMetadata(data []byte) (dimension.Metadata, error) {
	var sc sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return dimension.Metadata{}, fmt.Errorf("invalid metadata YAML: %w", err)
	}
	crit, err := dimension.ParseCriteria(sc.Criteria)
	if err != nil {
		return dimension.Metadata{}, err
	}
	return dimension.NewMetadata(sc.Description, crit)
}

// ReadMetadata loads the sidecar of imagePath.
func ReadMetadata(imagePath string) (dimension.Metadata, error) {
	p := SidecarPath(imagePath)
	data, err := os.ReadFile(p)
	if err != nil {
		return dimension.Metadata{}, fmt.Errorf("cannot read metadata %s: %w", p, err)
	}
	m, err := DecodeMetadata(data)
	if err != nil {
		return dimension.Metadata{}, fmt.Errorf("%s: %w", p, err)
	}
	return m, nil
}

// WriteMetadata writes the sidecar of imagePath.
func WriteMetadata(imagePath string, m dimension.Metadata) error {
	data, err := EncodeMetadata(m)
	if err != nil {
		return err
	}
	p := SidecarPath(imagePath)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("cannot write metadata %s: %w", p, err)
	}
	return nil
}

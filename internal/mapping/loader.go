package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
)

const component = "mapping"

// LoadFile loads and parses a mapping document from the given path.
func LoadFile(path, serviceID string) (*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configuration(err, component, "LoadFile",
			"failed to read mapping file %s: %v", path, err)
	}

	return Parse(data, serviceID)
}

// Parse parses a mapping document. When serviceID is non-empty the document's
// service.id must equal it. Every failure is a configuration error.
func Parse(data []byte, serviceID string) (*Specification, error) {
	var spec Specification

	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, errors.Configuration(err, component, "Parse",
			"failed to parse mapping YAML: %v", err)
	}

	applyDefaults(&spec)

	if spec.Service.ID == "" {
		return nil, errors.Configuration(errors.ErrServiceMismatch, component, "Parse",
			"mapping document has no service.id")
	}

	if serviceID != "" && spec.Service.ID != serviceID {
		return nil, errors.Configuration(errors.ErrServiceMismatch, component, "Parse",
			"service.id %q in mapping document does not match requested service %q", spec.Service.ID, serviceID)
	}

	if len(spec.Sections) == 0 {
		return nil, errors.Configuration(errors.ErrMissingFormMappings, component, "Parse",
			"mapping document for service %q has no formMappings", spec.Service.ID)
	}

	return &spec, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(spec *Specification) {
	svc := &spec.Service
	svc.ID = strings.TrimSpace(svc.ID)

	if svc.FormID == "" {
		svc.FormID = svc.ID
	}

	cfg := &svc.Config
	if len(cfg.SectionToFormMap) > 0 {
		if cfg.DestinationMap == nil {
			cfg.DestinationMap = make(map[string]string, len(cfg.SectionToFormMap))
		}

		for section, formID := range cfg.SectionToFormMap {
			if _, ok := cfg.DestinationMap[section]; !ok {
				cfg.DestinationMap[section] = formID
			}
		}

		cfg.SectionToFormMap = nil
	}
}

// Marshal serializes a Specification to YAML.
func Marshal(spec *Specification) ([]byte, error) {
	return yaml.Marshal(spec)
}

// WriteFile writes a Specification to the given path.
func WriteFile(spec *Specification, path string) error {
	data, err := Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", path, err)
	}

	return nil
}

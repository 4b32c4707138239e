package metadata

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a descriptor catalog.
type catalogFile struct {
	Entities []*Entity `yaml:"entities"`
}

// ReadCatalog parses descriptors from a YAML catalog file.
func ReadCatalog(path string) ([]*Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return file.Entities, nil
}

// Merge overlays descriptors onto base by entity name. Overrides replace a
// base descriptor wholesale; new names are appended.
func Merge(base, overrides []*Entity) []*Entity {
	index := make(map[string]int, len(base))
	merged := make([]*Entity, len(base))
	copy(merged, base)
	for i, e := range merged {
		index[e.Name] = i
	}
	for _, e := range overrides {
		if i, ok := index[e.Name]; ok {
			merged[i] = e
			continue
		}
		index[e.Name] = len(merged)
		merged = append(merged, e)
	}
	return merged
}

// LoadAll fills the registry with the built-in catalog, overlaid with the
// descriptors in catalogPath when one is configured.
func LoadAll(reg *Registry, catalogPath string, log *zap.Logger) error {
	entities := DefaultCatalog()
	if catalogPath != "" {
		overrides, err := ReadCatalog(catalogPath)
		if err != nil {
			return err
		}
		entities = Merge(entities, overrides)
		log.Info("catalog overrides applied", zap.String("path", catalogPath), zap.Int("entities", len(overrides)))
	}

	if err := reg.Load(entities); err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	log.Info("entity registry loaded", zap.Int("entities", len(entities)))
	return nil
}

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/siherrmann/foundry/helper"
	"github.com/siherrmann/foundry/model"
)

// Collection keys of the manifests a snapshot is built from.
const (
	WeaponsKey   = "ExportWeapons"
	ResourcesKey = "ExportResources"
	RecipesKey   = "ExportRecipes"
)

// sanitizeManifest strips raw carriage returns and newlines. Some manifests
// carry unescaped line breaks inside string values, which breaks strict
// JSON parsing.
func sanitizeManifest(data []byte) []byte {
	cleaned := strings.ReplaceAll(string(data), "\r", "")
	cleaned = strings.ReplaceAll(cleaned, "\n", "")
	return []byte(cleaned)
}

// ParseCollection extracts the record list stored under the given key from
// raw manifest JSON.
func ParseCollection(data []byte, key string) ([]model.RawRecord, error) {
	manifest := map[string][]model.RawRecord{}
	err := json.Unmarshal(sanitizeManifest(data), &manifest)
	if err != nil {
		return nil, helper.NewError("unmarshal manifest", err)
	}

	records, ok := manifest[key]
	if !ok {
		return nil, helper.NewError("parse manifest", fmt.Errorf("manifest has no %v collection", key))
	}

	return records, nil
}

// ReadCollection reads one manifest file and extracts the record list stored
// under the given key.
func ReadCollection(path string, key string) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError("read manifest file", err)
	}

	return ParseCollection(data, key)
}

// ReadSnapshotDir builds a snapshot from manifest files in a directory.
// Files are matched by collection name prefix (e.g. ExportWeapons_en.json).
// Missing collections stay empty; an ingest run treats them as a snapshot
// that simply carries no records of that kind.
func ReadSnapshotDir(dir string) (*model.Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, helper.NewError("read manifest directory", err)
	}

	snapshot := &model.Snapshot{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		key, ok := collectionForFile(entry.Name())
		if !ok {
			continue
		}

		records, err := ReadCollection(filepath.Join(dir, entry.Name()), key)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("read collection %s", key), err)
		}

		switch key {
		case WeaponsKey:
			snapshot.Weapons = append(snapshot.Weapons, records...)
		case ResourcesKey:
			snapshot.Resources = append(snapshot.Resources, records...)
		case RecipesKey:
			snapshot.Recipes = append(snapshot.Recipes, records...)
		}
	}

	return snapshot, nil
}

func collectionForFile(name string) (string, bool) {
	for _, key := range []string{WeaponsKey, ResourcesKey, RecipesKey} {
		if strings.HasPrefix(name, key) {
			return key, true
		}
	}
	return "", false
}

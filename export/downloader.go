package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/siherrmann/foundry/helper"
	"github.com/siherrmann/foundry/model"
	"github.com/ulikunitz/xz/lzma"
)

const (
	defaultIndexBaseURL    = "https://origin.warframe.com/PublicExport"
	defaultManifestBaseURL = "http://content.warframe.com/PublicExport/Manifest"
)

// Downloader fetches export snapshots from the content servers. The index is
// an LZMA compressed line list of manifest entries; each entry names a JSON
// manifest plus a content hash suffix (ExportWeapons_en.json!hash).
type Downloader struct {
	IndexBaseURL    string
	ManifestBaseURL string
	Language        string
	Client          *http.Client
	// Logging
	log *slog.Logger
}

// NewDownloader creates a downloader for the given export language
func NewDownloader(language string, logger *slog.Logger) *Downloader {
	return &Downloader{
		IndexBaseURL:    defaultIndexBaseURL,
		ManifestBaseURL: defaultManifestBaseURL,
		Language:        language,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: logger,
	}
}

func (d *Downloader) get(ctx context.Context, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, helper.NewError("create request", err)
	}

	response, err := d.Client.Do(request)
	if err != nil {
		return nil, helper.NewError("execute request", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, helper.NewError("execute request", fmt.Errorf("unexpected status %d for %v", response.StatusCode, url))
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, helper.NewError("read response body", err)
	}

	return body, nil
}

// FetchIndex downloads and decompresses the manifest index for the
// configured language. Returned entries keep their hash suffix since the
// manifest URLs require it.
func (d *Downloader) FetchIndex(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/index_%s.txt.lzma", d.IndexBaseURL, d.Language)
	compressed, err := d.get(ctx, url)
	if err != nil {
		return nil, helper.NewError("fetch index", err)
	}

	reader, err := lzma.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, helper.NewError("open lzma stream", err)
	}

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, helper.NewError("decompress index", err)
	}

	var entries []string
	for _, line := range strings.Split(strings.TrimSpace(string(decompressed)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			entries = append(entries, line)
		}
	}

	d.log.Info("Fetched manifest index", slog.String("language", d.Language), slog.Int("entries", len(entries)))

	return entries, nil
}

// FetchManifest downloads the raw JSON of one index entry
func (d *Downloader) FetchManifest(ctx context.Context, entry string) ([]byte, error) {
	return d.get(ctx, fmt.Sprintf("%s/%s", d.ManifestBaseURL, entry))
}

// FetchSnapshot downloads the weapon, resource and recipe manifests named by
// the current index and assembles them into one snapshot. Index entries for
// other collections are skipped.
func (d *Downloader) FetchSnapshot(ctx context.Context) (*model.Snapshot, error) {
	entries, err := d.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &model.Snapshot{}
	for _, entry := range entries {
		// ExportWeapons_en.json!hash -> ExportWeapons_en.json
		name, _, _ := strings.Cut(entry, "!")
		key, ok := collectionForFile(name)
		if !ok {
			continue
		}

		data, err := d.FetchManifest(ctx, entry)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("fetch manifest %s", name), err)
		}

		records, err := ParseCollection(data, key)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("parse manifest %s", name), err)
		}

		d.log.Info("Fetched manifest", slog.String("manifest", name), slog.Int("records", len(records)))

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

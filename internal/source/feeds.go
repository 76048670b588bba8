package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Описание RSS ленты в feeds.yaml
type Feed struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Section string `yaml:"section"`
	Limit   int    `yaml:"limit"`
}

type feedsFile struct {
	Feeds []Feed `yaml:"feeds"`
}

// Reuters через Google News, прямого RSS у них нет
var DefaultFeeds = []Feed{{
	ID:      "reuters",
	Name:    "Reuters",
	URL:     "https://news.google.com/rss/search?q=site:reuters.com/business&hl=en&gl=US&ceid=US:en",
	Section: "business",
	Limit:   30,
}}

// LoadFeeds reads the feed list from a YAML file. A missing file gives
// DefaultFeeds.
func LoadFeeds(path string) ([]Feed, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultFeeds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	return ParseFeeds(data)
}

func ParseFeeds(data []byte) ([]Feed, error) {
	var file feedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Feeds))
	for i, f := range file.Feeds {
		f.ID = strings.TrimSpace(f.ID)
		f.URL = strings.TrimSpace(f.URL)
		if f.ID == "" || f.URL == "" {
			return nil, fmt.Errorf("feed #%d: id and url are required", i+1)
		}
		if _, ok := seen[f.ID]; ok {
			return nil, fmt.Errorf("feed %q is declared twice", f.ID)
		}
		seen[f.ID] = struct{}{}

		if f.Name == "" {
			f.Name = f.ID
		}
		file.Feeds[i] = f
	}

	return file.Feeds, nil
}

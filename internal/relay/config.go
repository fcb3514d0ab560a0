package relay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dgnsrekt/kite_console/internal/console"
)

// reservedFeeds are the event names surface updates already use.
var reservedFeeds = map[string]bool{
	string(console.UpdateStatus): true,
	string(console.UpdateLabel):  true,
	string(console.UpdatePanel):  true,
}

// FeedConfig is one live price stream to relay.
type FeedConfig struct {
	Name            string `yaml:"name"`
	InstrumentToken string `yaml:"instrument_token"`
}

// FeedsConfig is the top-level YAML configuration.
type FeedsConfig struct {
	Feeds []FeedConfig `yaml:"feeds"`
}

// LoadConfig reads and validates a live feed YAML file.
func LoadConfig(path string) (*FeedsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("feeds config: %w", err)
	}
	var cfg FeedsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("feeds config: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		if f.Name == "" {
			return nil, fmt.Errorf("feeds config: feed[%d] missing name", i)
		}
		if f.InstrumentToken == "" {
			return nil, fmt.Errorf("feeds config: feed[%d] (%s) missing instrument_token", i, f.Name)
		}
		if reservedFeeds[f.Name] {
			return nil, fmt.Errorf("feeds config: feed name %q is reserved for surface updates", f.Name)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("feeds config: duplicate feed name %q", f.Name)
		}
		seen[f.Name] = true
	}
	return &cfg, nil
}

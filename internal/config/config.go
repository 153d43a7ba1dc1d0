package config

import (
	"cpuvalue/internal/catalog"
	"cpuvalue/internal/notify"
	"cpuvalue/internal/search"
	"cpuvalue/internal/vendors"
	"cpuvalue/internal/xmrig"
	"cpuvalue/pkg/configutil"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	"dario.cat/mergo"
)

const DefaultPath = "cpuvalue.json5"

type CatalogConfig struct {
	CacheFile string `json:"cache_file"`
}

type SearchConfig struct {
	BaseUrl          string   `json:"base_url"`
	Results          int      `json:"results"`
	DelaySeconds     float64  `json:"delay_seconds"`
	TimeoutSeconds   float64  `json:"timeout_seconds"`
	UserAgent        string   `json:"user_agent"`
	BypassCloudflare bool     `json:"bypass_cloudflare"`
	ContainerDepth   int      `json:"container_depth"`
	TLDs             []string `json:"tlds"`
}

type RefineConfig struct {
	Enabled      bool    `json:"enabled"`
	DelaySeconds float64 `json:"delay_seconds"`
}

type VendorsConfig struct {
	Approved   []string `json:"approved"`
	Unverified []string `json:"unverified"`
	// the subset of approved vendors trusted to anchor a price
	Exclusive []string `json:"exclusive"`
}

// HistoryConfig points at the price history database, a local sqlite file
// or a libsql server when `url` is set. Empty disables the history.
type HistoryConfig struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

type MemoryConfig struct {
	Offset       int     `json:"offset"`
	Window       int     `json:"window"`
	Limit        int     `json:"limit"`
	DelaySeconds float64 `json:"delay_seconds"`
}

type Config struct {
	XmrigUrl string `json:"xmrig_url"`
	// directory holding the checkpoint and results artifacts
	StateDir     string         `json:"state_dir"`
	RankingLimit int            `json:"ranking_limit"`
	Catalog      CatalogConfig  `json:"catalog"`
	Filter       catalog.Policy `json:"filter"`
	Refine       RefineConfig   `json:"refine"`
	Search       SearchConfig   `json:"search"`
	Vendors      VendorsConfig  `json:"vendors"`
	History      HistoryConfig  `json:"history"`
	Notify       notify.Options `json:"notify"`
	Memory       MemoryConfig   `json:"memory"`
}

// Default returns the built in configuration, its slices are copies so
// decoding a file into it never alters package defaults.
func Default() Config {
	extract := search.DefaultExtractOptions()
	return Config{
		XmrigUrl: xmrig.DefaultBaseUrl,
		StateDir: ".",
		Catalog: CatalogConfig{
			CacheFile: "XMRig.json",
		},
		Filter: catalog.DefaultPolicy(),
		Refine: RefineConfig{
			DelaySeconds: 2,
		},
		Search: SearchConfig{
			BaseUrl:        "https://www.google.com",
			Results:        50,
			DelaySeconds:   10,
			TimeoutSeconds: 5,
			ContainerDepth: extract.ContainerDepth,
			TLDs:           slices.Clone(extract.TLDs),
		},
		Vendors: VendorsConfig{
			Approved:   slices.Clone(vendors.DefaultApproved),
			Unverified: slices.Clone(vendors.DefaultUnverified),
			Exclusive:  slices.Clone(vendors.DefaultExclusive),
		},
		Memory: MemoryConfig{
			Window:       100,
			Limit:        5,
			DelaySeconds: 2,
		},
	}
}

// Load reads `path` and its local override on top of the defaults, missing
// files leave the defaults untouched.
func Load(path string) (Config, error) {
	config := Default()
	err := configutil.ReadConfigInto(path, &config)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	err = config.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return config, nil
}

// Override applies every non-zero field of `overrides`, it is used for
// command line flags.
func (c *Config) Override(overrides Config) error {
	err := mergo.Merge(c, overrides, mergo.WithOverride)
	if err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return c.Validate()
}

func (c Config) Validate() error {
	f := c.Filter
	if f.HashrateMin < 0 || f.HashrateMax < f.HashrateMin {
		return fmt.Errorf("invalid hashrate range %v-%v", f.HashrateMin, f.HashrateMax)
	}
	if f.MinSamples < 0 {
		return fmt.Errorf("invalid min_samples %d", f.MinSamples)
	}
	if c.Search.Results <= 0 {
		return fmt.Errorf("invalid search results %d", c.Search.Results)
	}
	if c.Search.DelaySeconds < 0 || c.Refine.DelaySeconds < 0 || c.Memory.DelaySeconds < 0 {
		return fmt.Errorf("delays cannot be negative")
	}
	if c.Memory.Offset < 0 {
		return fmt.Errorf("invalid memory offset %d", c.Memory.Offset)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir is empty")
	}
	// only approved listings can anchor a ranking
	for _, domain := range c.Vendors.Exclusive {
		if !slices.Contains(c.Vendors.Approved, domain) {
			return fmt.Errorf("exclusive vendor %q is not in vendors.approved", domain)
		}
	}
	return nil
}

func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// SearchOptions is the search engine configuration, it does not include the
// http dump output.
func (c Config) SearchOptions() search.Options {
	extract := search.DefaultExtractOptions()
	if c.Search.ContainerDepth > 0 {
		extract.ContainerDepth = c.Search.ContainerDepth
	}
	if len(c.Search.TLDs) > 0 {
		extract.TLDs = c.Search.TLDs
	}
	return search.Options{
		BaseUrl:          c.Search.BaseUrl,
		Results:          c.Search.Results,
		Delay:            Seconds(c.Search.DelaySeconds),
		Timeout:          Seconds(c.Search.TimeoutSeconds),
		UserAgent:        c.Search.UserAgent,
		BypassCloudflare: c.Search.BypassCloudflare,
		Extract:          extract,
	}
}

// Enabled reports whether a history database is configured.
func (h HistoryConfig) Enabled() bool {
	return h.File != "" || h.Url != ""
}

// Path is the database path given to the history store, the auth token is
// passed as the libsql `authToken` parameter.
func (h HistoryConfig) Path() (string, error) {
	if h.Url == "" {
		return h.File, nil
	}
	if h.AuthToken == "" {
		return h.Url, nil
	}
	parsed, err := url.Parse(h.Url)
	if err != nil {
		return "", fmt.Errorf("parse history url: %w", err)
	}
	query := parsed.Query()
	query.Set("authToken", h.AuthToken)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

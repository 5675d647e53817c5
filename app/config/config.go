// Package config loads dailyplanet yml configuration
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Conf for dailyplanet config yml
type Conf struct {
	NewsAPI struct {
		BaseURL   string        `yaml:"base_url"`
		APIKey    string        `yaml:"api_key"`
		Country   string        `yaml:"country"`
		Category  string        `yaml:"category"`
		PageSize  int           `yaml:"page_size"`
		Timeout   time.Duration `yaml:"timeout"`
		CacheTTL  time.Duration `yaml:"cache_ttl"`
		CacheKeys int           `yaml:"cache_keys"`
	} `yaml:"newsapi"`
	Filter   Filter `yaml:"filter"`
	Telegram struct {
		Server  string        `yaml:"server"`
		Token   string        `yaml:"token"`
		Channel string        `yaml:"channel"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"telegram"`
	Server struct {
		Port      int     `yaml:"port"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"server"`
}

// Filter defines title filter applied to loaded articles
type Filter struct {
	Title string `yaml:"title"`
}

// Load reads yml config and fills defaults. Missing file is not an error, defaults are used.
func Load(fname string) (*Conf, error) {
	res := &Conf{}
	data, err := os.ReadFile(fname) // nolint
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "can't read config %s", fname)
	}

	if err == nil {
		if err := yaml.Unmarshal(data, res); err != nil {
			return nil, errors.Wrapf(err, "can't parse config %s", fname)
		}
	}

	res.setDefaults()
	return res, nil
}

func (c *Conf) setDefaults() {
	if c.NewsAPI.BaseURL == "" {
		c.NewsAPI.BaseURL = "https://newsapi.org"
	}
	if c.NewsAPI.Country == "" {
		c.NewsAPI.Country = "us"
	}
	if c.NewsAPI.PageSize == 0 {
		c.NewsAPI.PageSize = 20
	}
	if c.NewsAPI.Timeout == 0 {
		c.NewsAPI.Timeout = 30 * time.Second
	}
	if c.NewsAPI.CacheTTL == 0 {
		c.NewsAPI.CacheTTL = 5 * time.Minute
	}
	if c.NewsAPI.CacheKeys == 0 {
		c.NewsAPI.CacheKeys = 100
	}
	if c.Telegram.Server == "" {
		c.Telegram.Server = "https://api.telegram.org"
	}
	if c.Telegram.Timeout == 0 {
		c.Telegram.Timeout = time.Minute
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 10
	}
}

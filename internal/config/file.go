package config

import "time"

// FetchSection holds the request settings of the configuration file.
type FetchSection struct {
	// UserAgent overrides the browser-like default User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Referer is used for documents without a canonical URL.
	Referer string `yaml:"referer,omitempty"`

	// Timeout is the per-request limit, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Headers are extra HTTP headers sent with every resource request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is sent as the Cookie header.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Proxy is a SOCKS5 proxy in host:port form.
	Proxy string `yaml:"proxy,omitempty"`

	// MaxBodySize is the maximum resource size in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`
}

// BatchSection holds the batch settings of the configuration file.
type BatchSection struct {
	// Concurrency is the number of documents processed at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// PauseEvery is the number of documents between pauses.
	// A pointer distinguishes an explicit 0 (no pauses) from unset.
	PauseEvery *int `yaml:"pauseEvery,omitempty"`

	// PauseMin and PauseMax bound the random pause, e.g. "10s".
	PauseMin time.Duration `yaml:"pauseMin,omitempty"`
	PauseMax time.Duration `yaml:"pauseMax,omitempty"`
}

// File represents the structure of the .offlinify configuration file.
type File struct {
	// Fetch configures resource requests.
	Fetch FetchSection `yaml:"fetch,omitempty"`

	// Batch configures document scheduling.
	Batch BatchSection `yaml:"batch,omitempty"`

	// Output overrides the default output root.
	Output string `yaml:"output,omitempty"`
}

// Apply copies every value set in the file onto cfg.
// Unset values leave cfg untouched, so Apply runs before explicit CLI
// flags are applied.
func (cf *File) Apply(cfg *Config) {
	if cf == nil {
		return
	}

	if cf.Output != "" {
		cfg.OutputDir = cf.Output
	}

	f := cf.Fetch
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.Referer != "" {
		cfg.Referer = f.Referer
	}
	if f.Timeout != 0 {
		cfg.Timeout = f.Timeout
	}
	if len(f.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(f.Headers))
		}
		for k, v := range f.Headers {
			cfg.Headers[k] = v
		}
	}
	if f.Cookie != "" {
		cfg.Cookie = f.Cookie
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	if f.MaxBodySize != 0 {
		cfg.MaxBodySize = f.MaxBodySize
	}

	b := cf.Batch
	if b.Concurrency != 0 {
		cfg.Concurrency = b.Concurrency
	}
	if b.PauseEvery != nil {
		cfg.PauseEvery = *b.PauseEvery
	}
	if b.PauseMin != 0 {
		cfg.PauseMin = b.PauseMin
	}
	if b.PauseMax != 0 {
		cfg.PauseMax = b.PauseMax
	}
}

// Package config loads the server configuration with go-zero's conf loader.
package config

import (
	"github.com/zeromicro/go-zero/core/conf"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `json:",default=:8080"`

	Log    LogConf
	Search SearchConf
	Mongo  MongoConf

	// PprofAddr enables the profiling server when set.
	PprofAddr string `json:",optional"`
}

type LogConf struct {
	Level string `json:",default=info,options=trace|debug|info|warn|error"`
	// Pretty selects the human readable console writer over JSON lines.
	Pretty bool `json:",default=true"`
}

type SearchConf struct {
	Parallel bool `json:",optional"`
}

// MongoConf selects the archive. Without a URL finished games stay in memory.
type MongoConf struct {
	URL        string `json:",optional"`
	Database   string `json:",default=tictactoe"`
	Collection string `json:",default=games"`
}

func Load(path string) (Config, error) {
	var c Config
	if err := conf.Load(path, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

package main

import "time"

type Config struct {
	BufferSize      int           `env:"BUFFER_SIZE,required=true"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	LimitMessages   *int          `env:"LIMIT_MESSAGES"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	DebugServer     bool          `env:"DEBUG_SERVER,default=false"`
	DebugPort       int           `env:"DEBUG_PORT,default=8081"`
}

package main

import "time"

type Config struct {
	BufferSize                int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	NumberOfWorkers           int           `env:"NUMBER_OF_WORKERS,default=4"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	SinkTimeout               time.Duration `env:"SINK_TIMEOUT,default=5s"`
	StatsInterval             time.Duration `env:"STATS_INTERVAL,default=1m"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath             string        `env:"BLUGE_FILEPATH,required=true"`
	SigningKey                string        `env:"SIGNING_KEY,required=true"`
	TokenDuration             time.Duration `env:"TOKEN_DURATION,default=24h"`
	TelegramBotToken          string        `env:"TELEGRAM_BOT_TOKEN"`
	AllowedOrigins            string        `env:"ALLOWED_ORIGINS,default=*"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}

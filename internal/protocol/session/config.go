package session

import "time"

// Config defines transport timing defaults shared by client and
// server. The server's command loop deliberately runs without a read
// timeout; the connecting side bounds its connect-plus-handshake
// sequence instead. WriteTimeout bounds each frame write on both
// sides.
type Config struct {
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     15 * time.Second,
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	return c
}

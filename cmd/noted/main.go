package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/notectl/internal/logging"
	"github.com/danmuck/notectl/internal/server"
)

func main() {
	port := flag.Int("port", 7536, "TCP port to listen on")
	admin := flag.String("admin", "", "optional admin HTTP listen address")
	configPath := flag.String("config", "", "optional noted.toml path")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := server.DefaultConfig()
	if *configPath != "" {
		loaded, err := loadServiceConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "noted: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	// Explicit flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.ListenAddr = fmt.Sprintf(":%d", *port)
		case "admin":
			cfg.AdminListenAddr = *admin
		}
	})

	svc := server.NewService(cfg)
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "noted: %v\n", err)
		os.Exit(1)
	}
}

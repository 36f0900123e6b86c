package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stickfight/server"
)

// stickfight 入口：启动 HTTP + WebSocket 服务与 60Hz 模拟循环
func main() {
	var configPath, webDir string
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&webDir, "web", "", "directory of static client files served at /")
	flag.Parse()

	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if webDir != "" {
		cfg.WebDir = webDir
	}

	if err := server.InitLogger(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	code := run(cfg)
	server.SyncLogger()
	os.Exit(code)
}

func run(cfg server.Config) int {
	hub := server.NewHub(server.NewHubOptions{
		Rooms:    server.NewRoomManager(nil),
		Metrics:  &server.Metrics{},
		TickRate: cfg.TickRate,
	})

	ln, err := server.Listen(cfg.Host, cfg.Port, cfg.PortRetries, cfg.PortRetryDelay)
	if err != nil {
		server.Log.Errorf("cannot bind: %v; stop the program holding the port and try again", err)
		return 1
	}
	printStartupInfo(ln.Addr())

	srv := &http.Server{
		Handler:           server.NewRouter(hub, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sup := server.NewSupervisor(server.NewSupervisorOptions{
		Hub:             hub,
		Server:          srv,
		Listener:        ln,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	// 优雅退出（Ctrl+C / kill）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sup.Run(ctx); err != nil {
		server.Log.Errorf("server stopped: %v", err)
		return 1
	}
	return 0
}

func printStartupInfo(addr net.Addr) {
	port := addr.(*net.TCPAddr).Port
	server.Log.Infof("stickfight listening on %s", addr)
	server.Log.Infof("local:  http://localhost:%d", port)
	if ip := server.LocalIPv4(); ip != "" {
		server.Log.Infof("lan:    http://%s:%d", ip, port)
	}
	server.Log.Infof("websocket endpoint: ws://localhost:%d/ws", port)
}

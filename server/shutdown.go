package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Supervisor 负责服务的生命周期：启动 Hub 与 HTTP 服务，收到信号或出现故障时限时关闭
type Supervisor struct {
	hub      *Hub
	server   *http.Server
	listener net.Listener
	timeout  time.Duration
}

// NewSupervisorOptions 创建 Supervisor 的参数
type NewSupervisorOptions struct {
	Hub             *Hub
	Server          *http.Server
	Listener        net.Listener
	ShutdownTimeout time.Duration
}

func NewSupervisor(opts NewSupervisorOptions) *Supervisor {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	return &Supervisor{
		hub:      opts.Hub,
		server:   opts.Server,
		listener: opts.Listener,
		timeout:  opts.ShutdownTimeout,
	}
}

// Run 阻塞直到 ctx 取消（正常关闭，返回 nil）或 Hub/HTTP 出错（返回该错误）
func (s *Supervisor) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	hubErr := make(chan error, 1)
	go func() { hubErr <- s.hub.Run(hubCtx) }()

	serveErr := make(chan error, 1)
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var cause error
	select {
	case <-ctx.Done():
		Log.Info("shutdown requested")
	case err := <-hubErr:
		cause = err
	case err := <-serveErr:
		cause = fmt.Errorf("serve: %w", err)
	}
	if cause != nil {
		Log.Errorf("shutting down after fault: %v", cause)
	}

	stopHub()
	<-s.hub.Done()
	s.shutdown()
	return cause
}

// shutdown 广播关服通知并等待连接关闭；超时后强制断开连接与 HTTP 服务
func (s *Supervisor) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.hub.Drain(ctx)
	if err := s.server.Shutdown(ctx); err != nil {
		Log.Warnf("graceful shutdown incomplete after %s, forcing close: %v", s.timeout, err)
		_ = s.server.Close()
		return
	}
	Log.Info("server closed")
}

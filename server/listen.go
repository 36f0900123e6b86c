package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"
)

// Listen 绑定 host:port；端口被占用时改用下一个端口重试，最多 attempts 次
func Listen(host string, port, attempts int, delay time.Duration) (net.Listener, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port+i))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen %s: %w", addr, err)
		}
		lastErr = err
		if i+1 < attempts {
			Log.Warnf("port %d in use, retrying on %d", port+i, port+i+1)
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("ports %d-%d all in use after %d attempts: %w", port, port+attempts-1, attempts, lastErr)
}

// LocalIPv4 返回第一个非回环 IPv4 地址，用于启动提示
func LocalIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

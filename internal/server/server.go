package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const DefaultAddr = "127.0.0.1:53080"

func DefaultPIDPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	p := filepath.Join(dir, "kanri")
	_ = os.MkdirAll(p, 0o755)
	return filepath.Join(p, "server.pid")
}

// RunForeground serves the handler on addr until SIGTERM/SIGINT.
// Shutdown is graceful but unbounded-ish: an in-flight restore stream may
// legitimately run close to a minute, so the drain window allows for it.
func RunForeground(addr, pidPath string, handler http.Handler) error {
	if err := writePID(pidPath); err != nil {
		return err
	}
	defer removePID(pidPath)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: the restore endpoint streams over a long-lived
		// response and must not be cut off mid-run.
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writePID(pidPath string) error {
	if _, err := os.Stat(pidPath); err == nil {
		// existing pid file
		return fmt.Errorf("pid file exists: %s", pidPath)
	}
	pid := os.Getpid()
	f, err := os.OpenFile(pidPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%d", pid)
	return err
}

func removePID(pidPath string) {
	_ = os.Remove(pidPath)
}

func ReadPID(pidPath string) (int, error) {
	b, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(b), "%d", &pid); err != nil {
		return 0, err
	}
	return pid, nil
}

// DetachAttr returns platform-specific attributes to detach a process.
func DetachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

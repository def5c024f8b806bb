// Package launcher opens URLs in the default browser and starts
// programs without waiting for them.
package launcher

import (
	"fmt"
	"os/exec"
	"runtime"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
)

// Compile-time interface check.
var _ domain.Launcher = (*System)(nil)

// System launches through the host operating system.
type System struct {
	log  *logger.Logger
	goos string
}

// New creates a launcher for the running OS.
func New(log *logger.Logger) *System {
	return &System{log: log, goos: runtime.GOOS}
}

// OpenURL hands url to the platform's default handler.
func (s *System) OpenURL(url string) error {
	name, args := s.openCommand(url)
	s.log.Debug("launcher: open %s", url)
	if err := s.spawn(name, args...); err != nil {
		return fmt.Errorf("launcher: open %s: %w", url, err)
	}
	return nil
}

// Start runs path detached. A leading "~" is expanded.
func (s *System) Start(path string, args ...string) error {
	p, err := ExpandPath(path)
	if err != nil {
		return fmt.Errorf("launcher: %w", err)
	}
	s.log.Debug("launcher: start %s %v", p, args)
	if err := s.spawn(p, args...); err != nil {
		return fmt.Errorf("launcher: start %s: %w", p, err)
	}
	return nil
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

func (s *System) openCommand(url string) (string, []string) {
	switch s.goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}

// spawn starts the process and reaps it in the background so it never
// becomes a zombie.
func (s *System) spawn(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			s.log.Debug("launcher: %s exited: %v", name, err)
		}
	}()
	return nil
}

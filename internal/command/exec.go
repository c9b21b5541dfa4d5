package command

import (
	"os/exec"

	"github.com/rs/zerolog"
)

// ShellExecutor launches command lines through "sh -c". The process is
// reaped in the background; exit status is logged, never reported back.
type ShellExecutor struct {
	log zerolog.Logger
}

func NewShellExecutor(log zerolog.Logger) *ShellExecutor {
	return &ShellExecutor{log: log}
}

func (e *ShellExecutor) Start(line string) error {
	cmd := exec.Command("sh", "-c", line)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			e.log.Error().Err(err).Str("command", line).Msg("custom command exited with error")
		}
	}()
	return nil
}

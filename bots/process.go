package bots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Сколько ждем завершения убитого процесса и его пайпов.
const reapTimeout = 2 * time.Second

var (
	errDeadline = errors.New("deadline")
	errExited   = errors.New("process exited")
)

// process внешний процесс движка. Любой путь выхода заканчивается Close:
// процесс убивается и дожидается, пайпы закрываются.
type process struct {
	name   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr *tailWriter
	log    zerolog.Logger

	lines   chan string
	closing chan struct{}
	done    chan struct{}
	waitErr error
	once    sync.Once
}

func startProcess(name, path string, args, env []string, log zerolog.Logger) (*process, error) {
	cmd := exec.Command(path, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.WaitDelay = reapTimeout

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessFailure, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessFailure, err)
	}
	stderr := &tailWriter{max: 512}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessFailure, err)
	}

	p := &process{
		name:    name,
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		log:     log.With().Str("player", name).Int("pid", cmd.Process.Pid).Logger(),
		lines:   make(chan string),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.pump()
	return p, nil
}

// pump читает stdout построчно, после EOF дожидается процесса.
func (p *process) pump() {
	defer close(p.done)
	sc := bufio.NewScanner(p.stdout)
	for sc.Scan() {
		line := sc.Text()
		p.log.Trace().Str("line", line).Msg("<")
		select {
		case p.lines <- line:
		case <-p.closing:
		}
	}
	close(p.lines)
	p.waitErr = p.cmd.Wait()
}

func (p *process) send(format string, args ...interface{}) error {
	cmd := fmt.Sprintf(format, args...)
	p.log.Trace().Str("line", cmd).Msg(">")
	if _, err := io.WriteString(p.stdin, cmd+"\n"); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrProcessFailure, cmd, err)
	}
	return nil
}

// readUntil читает строки, пока match не вернет true. Ожидание ограничено timeout.
func (p *process) readUntil(ctx context.Context, timeout time.Duration, match func(string) bool) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-p.lines:
			if !ok {
				return "", errExited
			}
			if match(line) {
				return line, nil
			}
		case <-timer.C:
			return "", errDeadline
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// exited ждет завершения процесса не дольше timeout.
func (p *process) exited(timeout time.Duration) bool {
	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close убивает процесс, если он еще жив, и дожидается его. Повторный вызов ничего не делает.
func (p *process) Close() error {
	p.once.Do(func() {
		close(p.closing)
		_ = p.stdin.Close()
		select {
		case <-p.done:
			return
		default:
		}
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.log.Warn().Err(err).Msg("kill failed")
		}
		if !p.exited(reapTimeout) {
			// внуки процесса могут держать пайп открытым
			_ = p.stdout.Close()
			<-p.done
		}
		p.log.Debug().Msg("process reaped")
	})
	return nil
}

// failure описание падения процесса для оператора.
func (p *process) failure() error {
	detail := p.stderr.String()
	if p.waitErr != nil {
		if detail != "" {
			return fmt.Errorf("%w: %v: %s", ErrProcessFailure, p.waitErr, detail)
		}
		return fmt.Errorf("%w: %v", ErrProcessFailure, p.waitErr)
	}
	if detail != "" {
		return fmt.Errorf("%w: %s", ErrProcessFailure, detail)
	}
	return ErrProcessFailure
}

// tailWriter хранит последние max байт stderr.
type tailWriter struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (w *tailWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, b...)
	if len(w.buf) > w.max {
		w.buf = w.buf[len(w.buf)-w.max:]
	}
	return len(b), nil
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.TrimSpace(string(w.buf))
}

package logging

import (
	"bufio"
	"io"
	"log"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// OutputCapture redirects process stdout/stderr (including writes made by the
// GTK/WebKit C libraries at the file-descriptor level) into the structured
// logger, so native warnings land in the same stream as application logs.
type OutputCapture struct {
	originalStdout *os.File
	originalStderr *os.File
	stdoutRead     *os.File
	stdoutWrite    *os.File
	stderrRead     *os.File
	stderrWrite    *os.File
	sink           zerolog.Logger
	level          zerolog.Level
	stopChan       chan struct{}
	started        bool
}

func NewOutputCapture(logger zerolog.Logger) *OutputCapture {
	return &OutputCapture{
		originalStdout: os.Stdout,
		originalStderr: os.Stderr,
		level:          logger.GetLevel(),
		stopChan:       make(chan struct{}),
	}
}

func (c *OutputCapture) Start() error {
	if c.started {
		return nil
	}

	// The sink must write through a duplicate of the original stderr fd:
	// after Dup3 below, fd 2 points at our own pipe and writing there
	// would loop captured lines back into the capture.
	sinkFd, err := unix.Dup(int(c.originalStderr.Fd()))
	if err != nil {
		return err
	}
	sinkFile := os.NewFile(uintptr(sinkFd), "stderr")
	c.sink = zerolog.New(zerolog.ConsoleWriter{Out: sinkFile}).
		Level(c.level).
		With().
		Timestamp().
		Str("component", "native").
		Logger()

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return err
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		if closeErr := stdoutR.Close(); closeErr != nil {
			log.Printf("failed to close stdout read pipe: %v", closeErr)
		}
		if closeErr := stdoutW.Close(); closeErr != nil {
			log.Printf("failed to close stdout write pipe: %v", closeErr)
		}
		return err
	}

	c.stdoutRead = stdoutR
	c.stdoutWrite = stdoutW
	c.stderrRead = stderrR
	c.stderrWrite = stderrW

	os.Stdout = stdoutW
	os.Stderr = stderrW

	// Redirect the file descriptors at syscall level so C code is captured too
	if err := unix.Dup3(int(stdoutW.Fd()), 1, 0); err != nil {
		log.Printf("failed to redirect stdout: %v", err)
	}
	if err := unix.Dup3(int(stderrW.Fd()), 2, 0); err != nil {
		log.Printf("failed to redirect stderr: %v", err)
	}

	go c.pipeToLogger(stdoutR, "stdout")
	go c.pipeToLogger(stderrR, "stderr")

	c.started = true
	return nil
}

func (c *OutputCapture) Stop() {
	if !c.started {
		return
	}

	close(c.stopChan)

	os.Stdout = c.originalStdout
	os.Stderr = c.originalStderr

	if err := unix.Dup3(int(c.originalStdout.Fd()), 1, 0); err != nil {
		log.Printf("failed to restore stdout: %v", err)
	}
	if err := unix.Dup3(int(c.originalStderr.Fd()), 2, 0); err != nil {
		log.Printf("failed to restore stderr: %v", err)
	}

	for _, f := range []*os.File{c.stdoutWrite, c.stderrWrite, c.stdoutRead, c.stderrRead} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			log.Printf("failed to close capture pipe: %v", err)
		}
	}

	c.started = false
}

func (c *OutputCapture) pipeToLogger(r io.Reader, stream string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-c.stopChan:
			return
		default:
			line := scanner.Text()
			if line != "" {
				c.sink.Info().Str("stream", stream).Msg(line)
			}
		}
	}
}

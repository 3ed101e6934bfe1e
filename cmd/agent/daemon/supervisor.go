// Package daemon provides the daemon process management functionality.
package daemon

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is a supervisor lifecycle state.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// restartBackoffCap is the ceiling for the per-attempt exponential restart
// backoff, min(2^(attempt-1), 30) seconds.
const restartBackoffCap = 30 * time.Second

// alertSleep is how long the supervisor sleeps after raising an operator
// alert for exhausted restart attempts, before re-evaluating.
const alertSleep = 300 * time.Second

// SupervisorConfig holds configuration for the supervisor.
type SupervisorConfig struct {
	ConfigPath           string
	NebulaBinary         string
	StateDir             string
	MaxRestartAttempts   int
	ProcessCheckInterval time.Duration
	PostRestartWait      time.Duration
	Metrics              *Metrics
	Logger               *zap.Logger
}

// Supervisor manages the lifecycle of a Nebula process: Stopped -> Starting
// -> Running -> Stopping -> Stopped, with a Failed sink entered after
// MaxRestartAttempts consecutive restart failures.
type Supervisor struct {
	mu    sync.RWMutex
	state State

	process    *Process
	adoptedPID int

	configPath   string
	nebulaBinary string
	stateDir     string

	maxRestartAttempts int
	restartAttempt     int

	processCheckInterval time.Duration
	postRestartWait      time.Duration

	metrics *Metrics
	logger  *zap.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	stopCh     chan struct{}
	restartCh  chan struct{}
}

// NewSupervisor creates a new process supervisor.
func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.NebulaBinary == "" {
		cfg.NebulaBinary = "nebula"
	}
	if cfg.MaxRestartAttempts == 0 {
		cfg.MaxRestartAttempts = 5
	}
	if cfg.ProcessCheckInterval == 0 {
		cfg.ProcessCheckInterval = 5 * time.Second
	}
	if cfg.PostRestartWait == 0 {
		cfg.PostRestartWait = 2 * time.Second
	}

	return &Supervisor{
		state:                StateStopped,
		configPath:           cfg.ConfigPath,
		nebulaBinary:         cfg.NebulaBinary,
		stateDir:             cfg.StateDir,
		maxRestartAttempts:   cfg.MaxRestartAttempts,
		processCheckInterval: cfg.ProcessCheckInterval,
		postRestartWait:      cfg.PostRestartWait,
		metrics:              cfg.Metrics,
		logger:               cfg.Logger,
		ctx:                  ctx,
		cancelFunc:           cancel,
		stopCh:               make(chan struct{}),
		restartCh:            make(chan struct{}, 1),
	}
}

// Run starts the supervisor loop. It blocks until Stop is called; repeated
// restart failures raise an operator alert and a cooldown, not a return.
func (s *Supervisor) Run() error {
	s.logger.Info("supervisor starting", zap.String("config", s.configPath))
	defer close(s.stopCh)

	for {
		if s.ctx.Err() != nil {
			s.setState(StateStopped)
			s.logger.Info("supervisor stopping")
			return nil
		}

		s.setState(StateStarting)

		if err := s.validateBeforeStart(); err != nil {
			s.logger.Error("refusing to start, config invalid", zap.Error(err))
			if s.process != nil && s.process.IsRunning() {
				// Leave the currently running daemon alone; just wait.
				s.setState(StateRunning)
				if ok, _ := s.waitOut(); ok {
					continue
				}
				return nil
			}
			if !s.onRestartFailure() {
				return nil
			}
			continue
		}

		adopted, err := s.startOrAdopt()
		if err != nil {
			s.logger.Error("failed to start process", zap.Error(err))
			if !s.onRestartFailure() {
				return nil
			}
			continue
		}

		s.setState(StateRunning)
		s.logger.Info("nebula running",
			zap.Int("pid", s.pid()),
			zap.Bool("adopted", adopted))

		startTime := time.Now()
		exited, restarted := s.waitOut()
		if !exited {
			return nil
		}
		if restarted {
			continue
		}

		runDuration := time.Since(startTime)
		if runDuration >= 5*time.Minute {
			s.mu.Lock()
			s.restartAttempt = 0
			s.mu.Unlock()
			if s.metrics != nil {
				s.metrics.RecordRestartSuccess()
			}
		} else {
			if s.metrics != nil {
				s.metrics.RecordCrash()
			}
			if !s.onRestartFailure() {
				return nil
			}
		}
	}
}

// waitOut blocks until the managed process exits, a restart is requested,
// or the supervisor is asked to stop. keepGoing is false if the caller should
// return immediately (supervisor stopped), true if it should loop again;
// restarted is true when the process was stopped for a requested restart.
// A requested restart whose config fails validation is ignored and the
// current process keeps running.
func (s *Supervisor) waitOut() (keepGoing, restarted bool) {
	select {
	case <-time.After(s.postRestartWait):
	case <-s.ctx.Done():
	}

	waitCh := make(chan struct{})
	go func() {
		s.waitForExit()
		close(waitCh)
	}()

	for {
		select {
		case <-s.ctx.Done():
			s.setState(StateStopping)
			s.stopManaged()
			select {
			case <-waitCh:
			case <-time.After(10 * time.Second):
				s.logger.Warn("timeout waiting for process to exit")
			}
			s.setState(StateStopped)
			return false, false

		case <-s.restartCh:
			if err := s.validateBeforeStart(); err != nil {
				s.logger.Error("refusing to restart, config invalid; leaving current process running", zap.Error(err))
				continue
			}
			s.logger.Info("restart requested")
			s.setState(StateStopping)
			s.stopManaged()
			<-waitCh
			return true, true

		case <-waitCh:
			return true, false
		}
	}
}

// validateBeforeStart runs `nebula -test -config` before every (re)start
// attempt, so a bad fetched config never replaces a known-good process.
func (s *Supervisor) validateBeforeStart() error {
	return validateConfig(s.ctx, s.nebulaBinary, s.configPath)
}

// startOrAdopt adopts an already-running Nebula process discovered via the
// PID file or a /proc scan, or spawns a new one if none is found.
func (s *Supervisor) startOrAdopt() (adopted bool, err error) {
	if pid, ok := readPIDFile(s.stateDir); ok && isProcessAlive(pid) {
		s.mu.Lock()
		s.adoptedPID = pid
		s.process = nil
		s.mu.Unlock()
		s.logger.Info("adopted existing nebula process from pid file", zap.Int("pid", pid))
		return true, nil
	}

	if pid, found := adoptOrphanPID(s.configPath); found {
		s.mu.Lock()
		s.adoptedPID = pid
		s.process = nil
		s.mu.Unlock()
		writePIDFile(s.stateDir, pid)
		s.logger.Info("adopted orphaned nebula process", zap.Int("pid", pid))
		return true, nil
	}

	proc := NewProcessWithBinary(s.nebulaBinary, s.configPath, s.logger)
	if err := proc.Start(s.ctx); err != nil {
		return false, err
	}

	s.mu.Lock()
	s.process = proc
	s.adoptedPID = 0
	s.mu.Unlock()

	writePIDFile(s.stateDir, proc.PID())
	return false, nil
}

// waitForExit blocks until the managed process (adopted or spawned) exits.
func (s *Supervisor) waitForExit() {
	s.mu.RLock()
	proc := s.process
	adoptedPID := s.adoptedPID
	s.mu.RUnlock()

	if proc != nil {
		proc.Wait()
		removePIDFile(s.stateDir)
		return
	}

	ticker := time.NewTicker(s.processCheckInterval)
	defer ticker.Stop()
	for range ticker.C {
		if !isProcessAlive(adoptedPID) {
			removePIDFile(s.stateDir)
			return
		}
	}
}

// stopManaged stops whichever process is currently managed, adopted or
// spawned.
func (s *Supervisor) stopManaged() {
	s.mu.RLock()
	proc := s.process
	adoptedPID := s.adoptedPID
	s.mu.RUnlock()

	if proc != nil {
		if err := proc.Stop(); err != nil {
			s.logger.Error("error stopping process", zap.Error(err))
		}
		return
	}
	if adoptedPID != 0 {
		signalTerminate(adoptedPID)
	}
}

// onRestartFailure applies the exponential restart backoff and, once
// maxRestartAttempts consecutive failures have accumulated, raises an
// operator alert and sleeps before re-evaluating. It returns false if the
// supervisor was asked to stop while waiting.
func (s *Supervisor) onRestartFailure() bool {
	if s.metrics != nil {
		s.metrics.RecordRestartFailure()
	}

	s.mu.Lock()
	s.restartAttempt++
	attempt := s.restartAttempt
	s.mu.Unlock()

	if attempt >= s.maxRestartAttempts {
		s.setState(StateFailed)
		s.logger.Error("ALERT: nebula failed to restart after consecutive attempts, sleeping before retry",
			zap.Int("attempts", attempt),
			zap.Duration("sleep", alertSleep))

		s.mu.Lock()
		s.restartAttempt = 0
		s.mu.Unlock()

		select {
		case <-time.After(alertSleep):
			return true
		case <-s.ctx.Done():
			return false
		}
	}

	backoff := time.Duration(math.Min(math.Pow(2, float64(attempt-1)), restartBackoffCap.Seconds())) * time.Second
	s.logger.Info("applying restart backoff", zap.Duration("delay", backoff), zap.Int("attempt", attempt))

	select {
	case <-time.After(backoff):
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// State returns the current supervisor state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stop stops the supervisor and the managed process.
func (s *Supervisor) Stop() error {
	s.logger.Info("stopping supervisor")
	s.cancelFunc()
	<-s.stopCh
	return nil
}

// Restart signals the supervisor to restart the process.
func (s *Supervisor) Restart() {
	select {
	case s.restartCh <- struct{}{}:
		s.logger.Info("restart signal sent")
	default:
		s.logger.Debug("restart already pending")
	}
}

// IsRunning returns whether the supervised process is running.
func (s *Supervisor) IsRunning() bool {
	return s.State() == StateRunning
}

// PID returns the process ID of the supervised process.
func (s *Supervisor) PID() int {
	return s.pid()
}

func (s *Supervisor) pid() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.process != nil {
		return s.process.PID()
	}
	return s.adoptedPID
}

package interrupt

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"evalsweep/pkg/logger"
)

// ExitCode is the conventional exit status for a SIGINT-terminated process
const ExitCode = 130

// Handler records stop requests delivered as SIGINT or SIGTERM.
// The flag is set once and polled by the sweep between iterations.
type Handler struct {
	stop    atomic.Bool
	signals chan os.Signal
	done    chan struct{}
	once    sync.Once
	logger  logger.Logger
}

// NewHandler creates a handler that has not yet subscribed to any signal
func NewHandler(log logger.Logger) *Handler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Handler{
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
		logger:  log,
	}
}

// Install subscribes to SIGINT and SIGTERM. A running evaluator is not
// signalled by the driver; it receives terminal signals through the
// foreground process group.
func (h *Handler) Install() {
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)
	go h.watch()
}

func (h *Handler) watch() {
	for {
		select {
		case sig := <-h.signals:
			if !h.stop.Swap(true) {
				h.logger.WithField("signal", sig.String()).
					Warn("Stop requested, finishing current evaluation")
			}
		case <-h.done:
			return
		}
	}
}

// Request records a stop request without a signal
func (h *Handler) Request() {
	h.stop.Store(true)
}

// Requested reports whether a stop has been requested
func (h *Handler) Requested() bool {
	return h.stop.Load()
}

// Close stops signal delivery to the handler
func (h *Handler) Close() {
	h.once.Do(func() {
		signal.Stop(h.signals)
		close(h.done)
	})
}

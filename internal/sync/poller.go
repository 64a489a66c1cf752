package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/source"
)

// SyncState represents the current state of the inbox poll.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the poll state of the current session.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// FetchResultMsg is a tea.Msg sent when a fetch for the current session
// completes.
type FetchResultMsg struct {
	Mailbox    string
	Messages   []model.Message
	Generation uint64
	Foreground bool
	Err        error

	// Toast is set only for failed foreground fetches.
	Toast *model.Notification

	// Stale is set when the session changed while the fetch was in
	// flight. Stale results never touch poller state.
	Stale bool
}

// ErrNoSession is returned by Refresh when no mailbox is being polled.
var ErrNoSession = errors.New("no active mailbox session")

// MessageFetcher retrieves the messages of a mailbox.
type MessageFetcher interface {
	Messages(ctx context.Context, address string) ([]model.Message, error)
}

// Options configures a Poller. Zero values select the defaults.
type Options struct {
	// Interval is the period of the silent background fetch.
	Interval time.Duration

	// FetchTimeout bounds a single fetch.
	FetchTimeout time.Duration
}

const (
	defaultInterval     = 10 * time.Second
	defaultFetchTimeout = 30 * time.Second
)

var _ MessageFetcher = source.Source(nil)

// Poller owns one mailbox session at a time: the current mailbox, its
// messages sorted newest first, and a single repeating fetch timer.
type Poller struct {
	fetcher      MessageFetcher
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger

	mu         gosync.Mutex
	mailbox    string
	messages   []model.Message
	generation uint64
	cancel     context.CancelFunc
	triggerCh  chan struct{}
	status     SyncStatus

	resultCh chan FetchResultMsg
}

// New creates a Poller that fetches through fetcher.
func New(fetcher MessageFetcher, opts Options, logger *zap.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetcher:      fetcher,
		interval:     opts.Interval,
		fetchTimeout: opts.FetchTimeout,
		logger:       logger,
		resultCh:     make(chan FetchResultMsg, 16),
	}
}

// StartSession makes mailbox the current mailbox. Any running session is
// stopped first, so there is never more than one timer. The first fetch
// runs immediately in the foreground; later ones are silent.
func (p *Poller) StartSession(mailbox string) error {
	if mailbox == "" {
		return source.ErrEmptyAddress
	}

	p.mu.Lock()
	p.stopLocked()
	p.generation++
	gen := p.generation
	p.mailbox = mailbox
	p.messages = nil
	p.status = SyncStatus{State: SyncIdle}

	ctx, cancel := context.WithCancel(context.Background())
	trigger := make(chan struct{}, 1)
	p.cancel = cancel
	p.triggerCh = trigger
	p.mu.Unlock()

	p.logger.Info("mailbox session started",
		zap.String("mailbox", mailbox),
		zap.Uint64("generation", gen),
		zap.Duration("interval", p.interval),
	)

	go p.run(ctx, mailbox, trigger)
	return nil
}

// StopSession cancels the timer and any in-flight fetch. The mailbox and
// its messages stay visible. Calling it without a session is a no-op.
func (p *Poller) StopSession() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	// A fetch cut off mid-flight never reports back.
	if p.status.State == SyncRunning {
		p.status.State = SyncIdle
	}
}

// Clear stops the session and forgets the mailbox and its messages.
func (p *Poller) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.mailbox = ""
	p.messages = nil
	p.status = SyncStatus{State: SyncIdle}
}

// stopLocked ends the active session. Bumping the generation makes every
// in-flight fetch stale. p.mu must be held.
func (p *Poller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
	p.triggerCh = nil
	p.generation++
	p.logger.Debug("mailbox session stopped", zap.String("mailbox", p.mailbox))
}

// Refresh requests an immediate foreground fetch of the current mailbox.
func (p *Poller) Refresh() error {
	p.mu.Lock()
	trigger := p.triggerCh
	p.mu.Unlock()

	if trigger == nil {
		return ErrNoSession
	}
	select {
	case trigger <- struct{}{}:
	default:
		// A refresh is already pending.
	}
	return nil
}

// run is the session loop. It exits when ctx is cancelled.
func (p *Poller) run(ctx context.Context, mailbox string, trigger <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, mailbox, false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, mailbox, true)
		case <-trigger:
			p.poll(ctx, mailbox, false)
		}
	}
}

func (p *Poller) poll(ctx context.Context, mailbox string, silent bool) {
	if ctx.Err() != nil {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	result := p.FetchOnce(fetchCtx, mailbox, silent)
	if result.Stale {
		return
	}
	p.sendResult(result)
}

// FetchOnce fetches mailbox once and, if the session has not changed in
// the meantime, applies the outcome: on success the messages are replaced
// by the new set sorted newest first; on failure the previous messages
// are kept and a toast is attached unless silent. The result is returned
// and not published on the result channel.
func (p *Poller) FetchOnce(ctx context.Context, mailbox string, silent bool) FetchResultMsg {
	p.mu.Lock()
	gen := p.generation
	current := p.mailbox == mailbox && p.cancel != nil
	if current {
		p.status.State = SyncRunning
	}
	p.mu.Unlock()

	result := FetchResultMsg{
		Mailbox:    mailbox,
		Generation: gen,
		Foreground: !silent,
	}
	if !current {
		result.Stale = true
		return result
	}

	msgs, err := p.fetcher.Messages(ctx, mailbox)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generation != gen {
		p.logger.Debug("discarding stale fetch",
			zap.String("mailbox", mailbox),
			zap.Uint64("generation", gen),
			zap.Uint64("current", p.generation),
		)
		result.Stale = true
		return result
	}

	if err != nil {
		p.status.State = SyncError
		p.status.Error = err
		result.Err = err
		p.logger.Warn("fetching messages failed",
			zap.String("mailbox", mailbox),
			zap.Bool("silent", silent),
			zap.Error(err),
		)
		if !silent {
			toast := model.Failure(fmt.Sprintf("Failed to fetch messages: %v", err))
			result.Toast = &toast
		}
		return result
	}

	model.SortNewestFirst(msgs)
	p.messages = msgs
	p.status = SyncStatus{State: SyncIdle, LastSync: time.Now()}
	result.Messages = cloneMessages(msgs)

	p.logger.Debug("fetched messages",
		zap.String("mailbox", mailbox),
		zap.Int("count", len(msgs)),
		zap.Bool("silent", silent),
	)
	return result
}

// Active reports whether a session timer is running.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Mailbox returns the current mailbox, or "" after Clear.
func (p *Poller) Mailbox() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mailbox
}

// Messages returns a copy of the current messages, newest first.
func (p *Poller) Messages() []model.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneMessages(p.messages)
}

// Status returns the poll state of the current session.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// IsCurrent reports whether a result with generation gen still belongs to
// the running session. A result can be published just before a session
// switch and consumed after it.
func (p *Poller) IsCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation == gen
}

// Results exposes the result channel for consumers outside Bubble Tea.
func (p *Poller) Results() <-chan FetchResultMsg {
	return p.resultCh
}

// sendResult sends a FetchResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg FetchResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
		p.logger.Debug("result channel full, dropping fetch result", zap.String("mailbox", msg.Mailbox))
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next fetch
// result. Call it again after handling each FetchResultMsg to keep
// listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

func cloneMessages(msgs []model.Message) []model.Message {
	if msgs == nil {
		return nil
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}

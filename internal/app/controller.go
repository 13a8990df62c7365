// Package app owns the application state: the credential gate, the single
// in-flight analysis, and the Idle/Analyzing/Success/Error machine the views
// are rendered from.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-chapters/internal/ai"
	"github.com/thywilljoshua/pdf-chapters/internal/credential"
	"github.com/thywilljoshua/pdf-chapters/internal/document"
)

// GenericErrorMessage is shown for every analysis failure.
const GenericErrorMessage = "An error occurred while analyzing the document. Check your API key or try again later."

var (
	ErrBusy     = errors.New("an analysis is already running")
	ErrNotReady = errors.New("reset the current result before analyzing another file")
)

type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Document is a file the user picked. Data is read by the encoder once the
// controller has moved to Analyzing.
type Document struct {
	Name  string
	Data  io.Reader
	Pages int
}

// NewDocument wraps in-memory bytes, recording the page count when it can be
// read.
func NewDocument(name string, data []byte) Document {
	pages, _ := document.PageCount(data)
	return Document{Name: name, Data: bytes.NewReader(data), Pages: pages}
}

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	State         State
	Result        *ai.AnalysisResult
	Message       string
	Document      string
	Pages         int
	Generation    uint64
	HasCredential bool
}

// Controller is the single owner of application state.
type Controller struct {
	store    credential.Store
	analyzer ai.Analyzer
	log      *zap.Logger

	mu       sync.Mutex
	state    State
	result   *ai.AnalysisResult
	message  string
	docName  string
	pages    int
	gen      uint64
	inflight sync.WaitGroup
}

func New(store credential.Store, analyzer ai.Analyzer, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		store:    store,
		analyzer: analyzer,
		log:      log.Named("app"),
		state:    StateIdle,
	}
}

func (c *Controller) Snapshot() Snapshot {
	has := c.HasCredential()

	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:         c.state,
		Message:       c.message,
		Document:      c.docName,
		Pages:         c.pages,
		Generation:    c.gen,
		HasCredential: has,
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	return s
}

func (c *Controller) HasCredential() bool {
	key, err := c.store.Load()
	if err != nil {
		c.log.Warn("loading credential", zap.Error(err))
		return false
	}
	return key != ""
}

// SetCredential stores a new API key. Blank keys are refused.
func (c *Controller) SetCredential(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ai.ErrMissingCredential
	}
	if err := c.store.Save(key); err != nil {
		c.log.Error("saving credential", zap.Error(err))
		return err
	}
	c.log.Info("credential stored")
	return nil
}

// ClearCredential removes the stored key and returns to Idle from any state.
// An analysis still in flight is abandoned.
func (c *Controller) ClearCredential() error {
	err := c.store.Clear()

	c.mu.Lock()
	c.toIdle()
	c.mu.Unlock()

	if err != nil {
		c.log.Error("clearing credential", zap.Error(err))
		return err
	}
	c.log.Info("credential cleared")
	return nil
}

// Reset drops the current result or error and returns to Idle, keeping the
// credential.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toIdle()
}

func (c *Controller) toIdle() {
	if c.state == StateAnalyzing {
		c.log.Info("abandoning in-flight analysis", zap.Uint64("generation", c.gen))
	}
	c.gen++
	c.state = StateIdle
	c.result = nil
	c.message = ""
	c.docName = ""
	c.pages = 0
}

// Submit starts analyzing doc in the background and returns its generation.
// It refuses without a credential, while another analysis runs, and from
// Success.
func (c *Controller) Submit(ctx context.Context, doc Document) (uint64, error) {
	gen, err := c.begin(doc)
	if err != nil {
		return 0, err
	}
	ctx = context.WithoutCancel(ctx)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.run(ctx, gen, doc)
	}()
	return gen, nil
}

// Run is the blocking form of Submit. The returned snapshot reflects the
// state right after this analysis finished.
func (c *Controller) Run(ctx context.Context, doc Document) (Snapshot, error) {
	gen, err := c.begin(doc)
	if err != nil {
		return c.Snapshot(), err
	}
	c.inflight.Add(1)
	c.run(ctx, gen, doc)
	c.inflight.Done()
	return c.Snapshot(), nil
}

// Wait blocks until background analyses have finished.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) begin(doc Document) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// checked under mu so a concurrent ClearCredential resets after us
	if !c.HasCredential() {
		c.log.Warn("analysis refused: no credential")
		return 0, ai.ErrMissingCredential
	}
	switch c.state {
	case StateAnalyzing:
		return 0, ErrBusy
	case StateSuccess:
		return 0, ErrNotReady
	}
	c.gen++
	c.state = StateAnalyzing
	c.result = nil
	c.message = ""
	c.docName = doc.Name
	c.pages = doc.Pages
	c.log.Info("analysis started",
		zap.Uint64("generation", c.gen),
		zap.String("document", doc.Name),
		zap.Int("pages", doc.Pages))
	return c.gen, nil
}

func (c *Controller) run(ctx context.Context, gen uint64, doc Document) {
	result, err := c.analyze(ctx, doc)
	c.finish(gen, result, err)
}

func (c *Controller) analyze(ctx context.Context, doc Document) (ai.AnalysisResult, error) {
	if doc.Data == nil {
		return ai.AnalysisResult{}, &document.ReadError{Err: errors.New("no document data")}
	}
	encoded, err := document.Encode(doc.Data)
	if err != nil {
		return ai.AnalysisResult{}, err
	}
	// read once, right before the call
	key, err := c.store.Load()
	if err != nil {
		return ai.AnalysisResult{}, fmt.Errorf("%w: %v", ai.ErrMissingCredential, err)
	}
	return c.analyzer.Analyze(ctx, encoded, key)
}

func (c *Controller) finish(gen uint64, result ai.AnalysisResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != StateAnalyzing {
		c.log.Debug("discarding stale analysis",
			zap.Uint64("generation", gen),
			zap.Uint64("current", c.gen),
			zap.Stringer("state", c.state))
		return
	}
	if err != nil {
		c.log.Error("analysis failed",
			zap.Uint64("generation", gen),
			zap.String("kind", Kind(err)),
			zap.Error(err))
		c.state = StateError
		c.message = GenericErrorMessage
		return
	}
	c.log.Info("analysis finished",
		zap.Uint64("generation", gen),
		zap.String("title", result.Title),
		zap.Int("chapters", len(result.Chapters)))
	c.state = StateSuccess
	c.result = &result
}

// Kind names the error category for logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ai.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, document.ErrRead):
		return "read_error"
	case errors.Is(err, ai.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ai.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ai.ErrRemote):
		return "remote_error"
	default:
		return "unknown"
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importwizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/kontakte/lib/clock"
	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

// DefaultPollInterval is the pause before each status request.
const DefaultPollInterval = time.Second

// Transport performs the three server calls of an import.
//
// Upload must report progress as bytes sent out of the request's total
// size, and return an *importapi.ServerError when the server answers
// with anything other than 202 and a task id. Status and Finalize
// return *importapi.ServerError for non-success HTTP statuses.
type Transport interface {
	Upload(ctx context.Context, files []File, progress func(loaded, total int64)) (taskID string, err error)
	Status(ctx context.Context, taskID string) (importapi.StatusResponse, error)
	Finalize(ctx context.Context, request importapi.FinalizeRequest) (importapi.FinalizeResponse, error)
}

// Config holds the collaborators and limits of a Wizard.
type Config struct {
	// Transport reaches the contact server. Required.
	Transport Transport

	// Templates is the catalog the user picks the import target from.
	// Required.
	Templates *vorlage.Catalog

	// Clock paces status polling. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// PollInterval is the wait before each status request. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// PollTimeout bounds the time spent polling a task that keeps
	// reporting "processing". Zero means no bound.
	PollTimeout time.Duration

	// MaxPolls bounds the number of status requests per task. Zero
	// means no bound.
	MaxPolls int

	// OnChange is called after every state change with a snapshot of
	// the new state. It runs on the goroutine that caused the change,
	// outside the wizard's lock, and may call back into the Wizard.
	OnChange func(Snapshot)
}

// Result describes a finished import.
type Result struct {
	RedirectURL string
	Imported    int
}

// Wizard is the controller of one import session. All methods are safe
// for concurrent use.
type Wizard struct {
	transport    Transport
	catalog      *vorlage.Catalog
	clock        clock.Clock
	logger       *slog.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
	maxPolls     int
	onChange     func(Snapshot)

	mu      sync.Mutex
	session session
	// generation identifies the current session. Open and Close bump
	// it, which invalidates results of operations started earlier.
	generation uint64
	// cancel stops the in-flight upload, poll or finalize.
	cancel context.CancelFunc
}

// New creates a Wizard in the Closed step.
func New(config Config) (*Wizard, error) {
	if config.Transport == nil {
		return nil, errors.New("importwizard: Transport is required")
	}
	if config.Templates == nil {
		return nil, errors.New("importwizard: Templates is required")
	}
	if config.PollTimeout < 0 || config.MaxPolls < 0 || config.PollInterval < 0 {
		return nil, errors.New("importwizard: poll limits must not be negative")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
	return &Wizard{
		transport:    config.Transport,
		catalog:      config.Templates,
		clock:        config.Clock,
		logger:       config.Logger,
		pollInterval: config.PollInterval,
		pollTimeout:  config.PollTimeout,
		maxPolls:     config.MaxPolls,
		onChange:     config.OnChange,
	}, nil
}

// Templates returns the catalog the wizard was configured with.
func (wizard *Wizard) Templates() *vorlage.Catalog { return wizard.catalog }

// Snapshot returns a copy of the current session.
func (wizard *Wizard) Snapshot() Snapshot {
	wizard.mu.Lock()
	defer wizard.mu.Unlock()
	return wizard.session.snapshot()
}

// Open starts a fresh session targeting activeTemplateID, or no
// template if the id is not in the catalog. Any previous session is
// discarded and its in-flight operation cancelled. Calling Open twice
// yields the same state as calling it once.
func (wizard *Wizard) Open(activeTemplateID int64) {
	wizard.mu.Lock()
	wizard.supersedeLocked()
	wizard.session = session{step: StepSelectTemplate}
	if template, ok := wizard.catalog.Find(activeTemplateID); ok {
		wizard.session.template = template
	}
	snapshot := wizard.session.snapshot()
	wizard.mu.Unlock()

	wizard.logger.Debug("import wizard opened", "template_id", activeTemplateID)
	wizard.emit(snapshot)
}

// Close discards the session and cancels its in-flight operation.
func (wizard *Wizard) Close() {
	wizard.mu.Lock()
	wizard.supersedeLocked()
	wizard.session = session{step: StepClosed}
	snapshot := wizard.session.snapshot()
	wizard.mu.Unlock()

	wizard.logger.Debug("import wizard closed")
	wizard.emit(snapshot)
}

// SelectTemplate changes the import target while choosing files.
func (wizard *Wizard) SelectTemplate(templateID int64) error {
	wizard.mu.Lock()
	if err := wizard.requireLocked("SelectTemplate", StepSelectTemplate); err != nil {
		wizard.mu.Unlock()
		return err
	}
	template, ok := wizard.catalog.Find(templateID)
	if !ok {
		failure := validationError("template %d does not exist", templateID)
		wizard.session.err = failure
		snapshot := wizard.session.snapshot()
		wizard.mu.Unlock()
		wizard.emit(snapshot)
		return failure
	}
	wizard.session.template = template
	wizard.session.err = nil
	snapshot := wizard.session.snapshot()
	wizard.mu.Unlock()

	wizard.emit(snapshot)
	return nil
}

// SubmitFiles uploads files and waits for the server to parse them.
// It returns nil once the session is on mapping page 0. On failure the
// session is back in SelectTemplate (or unchanged for validation
// errors) and the returned error is an *Error. If the session is
// replaced while the call runs, it returns ErrSuperseded.
func (wizard *Wizard) SubmitFiles(ctx context.Context, files []File) error {
	wizard.mu.Lock()
	if err := wizard.requireLocked("SubmitFiles", StepSelectTemplate); err != nil {
		wizard.mu.Unlock()
		return err
	}
	if wizard.session.template == nil || len(files) == 0 {
		var failure *Error
		if wizard.session.template == nil {
			failure = validationError("no template selected")
		} else {
			failure = validationError("no files selected")
		}
		wizard.session.err = failure
		snapshot := wizard.session.snapshot()
		wizard.mu.Unlock()
		wizard.emit(snapshot)
		return failure
	}

	operationContext, cancel := context.WithCancel(ctx)
	wizard.cancel = cancel
	generation := wizard.generation
	names := make([]string, len(files))
	for index, file := range files {
		names[index] = file.Name
	}
	wizard.session.step = StepUploading
	wizard.session.files = names
	wizard.session.progress = 0
	wizard.session.err = nil
	wizard.session.status = fmt.Sprintf("Lade %d Datei(en) hoch...", len(files))
	templateID := wizard.session.template.ID
	snapshot := wizard.session.snapshot()
	wizard.mu.Unlock()
	wizard.emit(snapshot)
	defer wizard.release(generation, cancel)

	wizard.logger.Info("uploading import files", "files", len(files), "template_id", templateID)
	taskID, err := wizard.transport.Upload(operationContext, files, func(loaded, total int64) {
		wizard.uploadProgress(generation, loaded, total)
	})
	if err != nil {
		return wizard.failUpload(generation, err)
	}

	err = wizard.apply(generation, func(s *session) error {
		s.step = StepProcessing
		s.taskID = taskID
		s.progress = 0
		s.status = "Upload abgeschlossen. Starte Verarbeitung..."
		return nil
	})
	if err != nil {
		return err
	}
	wizard.logger.Info("upload accepted", "task_id", taskID)
	return wizard.poll(operationContext, generation, taskID)
}

// uploadProgress records a transport progress report. Percentages
// never decrease within one upload.
func (wizard *Wizard) uploadProgress(generation uint64, loaded, total int64) {
	percent := importapi.Percent(loaded, total)
	wizard.apply(generation, func(s *session) error {
		if s.step != StepUploading || percent < s.progress {
			return nil
		}
		s.progress = percent
		s.status = fmt.Sprintf("Lade hoch... %d%%", percent)
		return nil
	})
}

func (wizard *Wizard) failUpload(generation uint64, cause error) error {
	var failure *Error
	var serverErr *importapi.ServerError
	if errors.As(cause, &serverErr) {
		failure = &Error{Kind: KindServer, Status: serverErr.UserMessage(), Err: cause}
	} else {
		failure = &Error{Kind: KindUpload, Status: messageNetwork, Err: cause}
	}
	err := wizard.apply(generation, func(s *session) error {
		s.returnToSelection(failure)
		return failure
	})
	if !errors.Is(err, ErrSuperseded) {
		wizard.logger.Warn("upload failed", "kind", failure.Kind, "error", cause)
	}
	return err
}

// poll requests the task status every poll interval until the task
// completes, a request fails, a limit is hit, or ctx ends.
func (wizard *Wizard) poll(ctx context.Context, generation uint64, taskID string) error {
	started := wizard.clock.Now()
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return wizard.abandonPoll(generation, ctx.Err())
		case <-wizard.clock.After(wizard.pollInterval):
		}

		response, err := wizard.transport.Status(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return wizard.abandonPoll(generation, ctx.Err())
			}
			wizard.logger.Warn("status poll failed", "task_id", taskID, "attempt", attempt, "error", err)
			failure := &Error{Kind: KindPoll, Status: messagePoll, Err: err}
			return wizard.apply(generation, func(s *session) error {
				s.returnToSelection(failure)
				return failure
			})
		}

		complete := false
		err = wizard.apply(generation, func(s *session) error {
			switch response.Status {
			case importapi.StatusProcessing:
				s.progress = response.Percent()
				s.status = fmt.Sprintf("Verarbeite Datei %d von %d... %d%%", response.Progress, response.Total, s.progress)
			case importapi.StatusComplete:
				if response.Data == nil {
					failure := &Error{Kind: KindPoll, Status: messagePoll, Err: fmt.Errorf("task %s completed without data", taskID)}
					s.returnToSelection(failure)
					return failure
				}
				s.enterMapping(response.Data)
				complete = true
			default:
				wizard.logger.Warn("unexpected task status", "task_id", taskID, "status", response.Status)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if complete {
			wizard.logger.Info("import data ready", "task_id", taskID, "polls", attempt)
			return nil
		}

		exhausted := wizard.maxPolls > 0 && attempt >= wizard.maxPolls
		expired := wizard.pollTimeout > 0 && wizard.clock.Now().Sub(started) >= wizard.pollTimeout
		if exhausted || expired {
			failure := &Error{
				Kind:   KindPollTimeout,
				Status: messagePollTimeout,
				Err:    fmt.Errorf("task %s still processing after %d polls", taskID, attempt),
			}
			wizard.logger.Warn("giving up on import task", "task_id", taskID, "polls", attempt)
			return wizard.apply(generation, func(s *session) error {
				s.returnToSelection(failure)
				return failure
			})
		}
	}
}

// abandonPoll handles a poll whose context ended. A superseded session
// is left alone; a caller cancellation returns the session to
// SelectTemplate.
func (wizard *Wizard) abandonPoll(generation uint64, cause error) error {
	failure := &Error{Kind: KindPoll, Status: messagePoll, Err: cause}
	return wizard.apply(generation, func(s *session) error {
		s.returnToSelection(failure)
		return failure
	})
}

// enterMapping stores the parsed data and opens mapping page 0 with
// the automatic mapping.
func (s *session) enterMapping(data *importapi.ImportData) {
	s.data = data
	s.mappings = AutoMap(s.template.Properties(), data.Headers)
	s.step = StepMapping
	s.page = 0
	s.progress = 100
	s.status = fmt.Sprintf("%d Datensätze aus %d Datei(en) gelesen.", len(data.OriginalData), len(s.files))
	s.err = nil
}

// SetMapping maps property to header, or unmaps it when header is "".
// A header already mapped to another property is taken away from it.
func (wizard *Wizard) SetMapping(property, header string) error {
	wizard.mu.Lock()
	if err := wizard.requireLocked("SetMapping", StepMapping); err != nil {
		wizard.mu.Unlock()
		return err
	}
	if _, known := wizard.session.mappings[property]; !known {
		wizard.mu.Unlock()
		return &Error{Kind: KindValidation, Status: fmt.Sprintf("Unbekannte Eigenschaft: %s", property), Err: fmt.Errorf("property %q is not part of the template", property)}
	}
	if header != "" && !slices.Contains(wizard.session.data.Headers, header) {
		wizard.mu.Unlock()
		return &Error{Kind: KindValidation, Status: fmt.Sprintf("Unbekannte Spalte: %s", header), Err: fmt.Errorf("header %q is not in the imported data", header)}
	}
	if header != "" {
		for other, mapped := range wizard.session.mappings {
			if other != property && mapped == header {
				wizard.session.mappings[other] = ""
			}
		}
	}
	wizard.session.mappings[property] = header
	snapshot := wizard.session.snapshot()
	wizard.mu.Unlock()

	wizard.emit(snapshot)
	return nil
}

// AvailableHeaders returns the headers that may be chosen for property:
// those not mapped to any other property, in source order. The
// property's own header is included.
func (wizard *Wizard) AvailableHeaders(property string) ([]string, error) {
	wizard.mu.Lock()
	defer wizard.mu.Unlock()
	if err := wizard.requireLocked("AvailableHeaders", StepMapping); err != nil {
		return nil, err
	}
	return wizard.session.availableHeaders(property), nil
}

// NextPage advances one mapping page. On the review page it does
// nothing.
func (wizard *Wizard) NextPage() error {
	wizard.mu.Lock()
	if err := wizard.requireLocked("NextPage", StepMapping); err != nil {
		wizard.mu.Unlock()
		return err
	}
	if wizard.session.page >= wizard.session.groupCount() {
		wizard.mu.Unlock()
		return nil
	}
	wizard.session.page++
	snapshot := wizard.session.snapshot()
	wizard.mu.Unlock()

	wizard.emit(snapshot)
	return nil
}

// PrevPage goes back one mapping page. From page 0 it returns to
// SelectTemplate and drops the processed data; the files must be
// submitted again.
func (wizard *Wizard) PrevPage() error {
	wizard.mu.Lock()
	if err := wizard.requireLocked("PrevPage", StepMapping); err != nil {
		wizard.mu.Unlock()
		return err
	}
	if wizard.session.page > 0 {
		wizard.session.page--
	} else {
		wizard.session.returnToSelection(nil)
	}
	snapshot := wizard.session.snapshot()
	wizard.mu.Unlock()

	wizard.emit(snapshot)
	return nil
}

// Finalize sends the mapping and rows to the server. It is only
// allowed from the review page. On success the session is Done; on
// failure it stays on the review page and the error is an *Error of
// KindFinalize.
func (wizard *Wizard) Finalize(ctx context.Context) (Result, error) {
	wizard.mu.Lock()
	if err := wizard.requireLocked("Finalize", StepMapping); err != nil {
		wizard.mu.Unlock()
		return Result{}, err
	}
	if wizard.session.page != wizard.session.groupCount() {
		wizard.mu.Unlock()
		return Result{}, fmt.Errorf("%w: Finalize before the review page", ErrWrongStep)
	}
	request := importapi.FinalizeRequest{
		TemplateID:   wizard.session.template.ID,
		Mappings:     wizard.session.inverseMappings(),
		OriginalData: wizard.session.data.OriginalData,
	}
	operationContext, cancel := context.WithCancel(ctx)
	wizard.cancel = cancel
	generation := wizard.generation
	wizard.session.step = StepFinalizing
	wizard.session.err = nil
	wizard.session.status = "Importiere Kontakte..."
	snapshot := wizard.session.snapshot()
	wizard.mu.Unlock()
	wizard.emit(snapshot)
	defer wizard.release(generation, cancel)

	wizard.logger.Info("finalizing import", "template_id", request.TemplateID, "rows", len(request.OriginalData), "mapped_headers", len(request.Mappings))
	response, err := wizard.transport.Finalize(operationContext, request)

	var failure *Error
	var serverErr *importapi.ServerError
	switch {
	case errors.As(err, &serverErr):
		failure = finalizeError(serverErr.Message, err)
	case err != nil:
		failure = finalizeError(messageNetwork, err)
	case !response.Success:
		failure = finalizeError(response.Error, fmt.Errorf("server rejected import: %s", response.Error))
	}

	var result Result
	err = wizard.apply(generation, func(s *session) error {
		if failure != nil {
			s.step = StepMapping
			s.page = s.groupCount()
			s.status = ""
			s.err = failure
			return failure
		}
		s.step = StepDone
		s.data = nil
		s.mappings = nil
		s.redirectURL = response.RedirectURL
		s.imported = response.Imported
		s.status = fmt.Sprintf("%d Kontakte wurden erfolgreich importiert.", response.Imported)
		result = Result{RedirectURL: response.RedirectURL, Imported: response.Imported}
		return nil
	})
	if failure != nil && !errors.Is(err, ErrSuperseded) {
		wizard.logger.Warn("finalize failed", "error", failure.Err)
	}
	if err == nil {
		wizard.logger.Info("import finished", "imported", result.Imported, "redirect_url", result.RedirectURL)
	}
	return result, err
}

// requireLocked rejects an operation that does not apply to the
// current step. Must be called with wizard.mu held.
func (wizard *Wizard) requireLocked(operation string, step Step) error {
	current := wizard.session.step
	if current == step {
		return nil
	}
	if current.busy() {
		return fmt.Errorf("%s: %w (%s)", operation, ErrBusy, current)
	}
	return fmt.Errorf("%w: %s in step %s", ErrWrongStep, operation, current)
}

// supersedeLocked invalidates the current session's in-flight
// operation. Must be called with wizard.mu held.
func (wizard *Wizard) supersedeLocked() {
	wizard.generation++
	if wizard.cancel != nil {
		wizard.cancel()
		wizard.cancel = nil
	}
}

// release cancels an operation's context once it returns and forgets
// the cancel function if the session is still the one that started it.
func (wizard *Wizard) release(generation uint64, cancel context.CancelFunc) {
	cancel()
	wizard.mu.Lock()
	if wizard.generation == generation {
		wizard.cancel = nil
	}
	wizard.mu.Unlock()
}

// apply runs mutate on the session if generation still identifies it,
// then publishes the new state. mutate's error is returned.
func (wizard *Wizard) apply(generation uint64, mutate func(*session) error) error {
	wizard.mu.Lock()
	if generation != wizard.generation {
		wizard.mu.Unlock()
		return ErrSuperseded
	}
	err := mutate(&wizard.session)
	snapshot := wizard.session.snapshot()
	wizard.mu.Unlock()

	wizard.emit(snapshot)
	return err
}

func (wizard *Wizard) emit(snapshot Snapshot) {
	if wizard.onChange != nil {
		wizard.onChange(snapshot)
	}
}

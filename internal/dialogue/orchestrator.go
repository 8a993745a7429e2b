package dialogue

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/muhammadolammi/cvbuilder/internal/chat"
	"github.com/muhammadolammi/cvbuilder/internal/extract"
	"github.com/muhammadolammi/cvbuilder/internal/observability"
	"github.com/muhammadolammi/cvbuilder/internal/record"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
	"github.com/muhammadolammi/cvbuilder/internal/stage"
	"github.com/muhammadolammi/cvbuilder/internal/validate"
)

const DefaultExtractTimeout = 60 * time.Second

type Options struct {
	QuestionBudget int
	ExtractTimeout time.Duration
	Now            func() time.Time
}

// Orchestrator runs the per-turn cycle. It holds no session data and is safe for
// concurrent use; callers serialize turns of the same session.
type Orchestrator struct {
	schema     *schema.Schema
	controller *stage.Controller
	detector   *validate.Detector
	extractor  extract.Extractor
	timeout    time.Duration
	now        func() time.Time
}

func NewOrchestrator(s *schema.Schema, ex extract.Extractor, opts Options) *Orchestrator {
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = DefaultExtractTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		schema:     s,
		controller: stage.New(s, opts.QuestionBudget),
		detector:   validate.New(s),
		extractor:  ex,
		timeout:    opts.ExtractTimeout,
		now:        opts.Now,
	}
}

func (o *Orchestrator) Schema() *schema.Schema {
	return o.schema
}

// Start creates a session and its opening message. The opening question counts
// against the first stage's budget.
func (o *Orchestrator) Start(id, userID string) (*SessionState, Reply) {
	now := o.now()
	st := &SessionState{
		ID:        id,
		UserID:    userID,
		Progress:  o.controller.Start(),
		Record:    record.New(o.schema),
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.Progress.Questions = 1

	def, _ := o.schema.Stage(st.Progress.Stage)
	msg := join(greeting, stageIntro(def))
	st.History = st.History.Append(chat.RoleAssistant, msg)
	return st, o.finish(st, Reply{Message: msg})
}

// Turn processes one user message. On error the state is left exactly as it was
// and the user turn is not recorded.
func (o *Orchestrator) Turn(ctx context.Context, state *SessionState, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	next := state.Clone()
	next.History = next.History.Append(chat.RoleUser, text)

	var (
		rep Reply
		err error
	)
	if cmd, ok := parseCommand(text); ok {
		rep = o.command(ctx, next, cmd)
	} else if next.Progress.Complete {
		rep = Reply{Message: join("資料已收集完成。", o.summary(next))}
	} else if rep, err = o.extractTurn(ctx, next); err != nil {
		return Reply{}, err
	}

	next.History = next.History.Append(chat.RoleAssistant, rep.Message)
	next.UpdatedAt = o.now()
	*state = *next
	return o.finish(state, rep), nil
}

func (o *Orchestrator) extractTurn(ctx context.Context, next *SessionState) (Reply, error) {
	p := next.Progress
	rec := next.Record
	logger := observability.LoggerFromContext(ctx).With("stage", p.Stage)

	req := extract.Request{
		Stage:       p.Stage,
		Instruction: o.controller.Instruction(p.Stage),
		History:     next.History,
		Targets:     rec.Pending(p.Stage),
	}

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	res, err := o.extractor.Extract(cctx, req)
	if err != nil {
		logger.Warn("extraction failed", "error", err)
		return Reply{}, fmt.Errorf("%w: %w", ErrExtractionUnavailable, err)
	}

	values := o.detector.Normalize(res.Fields)
	changes := rec.Apply(p.Stage, values)
	outcome := o.detector.Validate(rec, changes)
	confirmed := rec.Settle(outcome)
	next.Progress.Turns++

	var raised []string
	for _, v := range outcome.Anomalies() {
		raised = append(raised, v.Field)
		logger.Info("anomaly raised", "field", v.Field, "kind", v.Kind, "reason", v.Reason)
	}
	logger.Debug("fields applied", "changed", len(changes), "confirmed", confirmed, "structured", res.Structured)

	rep := o.advance(ctx, next, echo(rec, confirmed, res.Sentences), res.Ambiguous, true)
	rep.Confirmed = confirmed
	rep.Anomalies = raised
	return rep, nil
}

// advance lets the stage controller decide, then composes the next message:
// a stage intro, the final summary, or the next question of the active stage.
// count is false for commands, which do not use up the question budget.
func (o *Orchestrator) advance(ctx context.Context, next *SessionState, lead string, ambiguous []string, count bool) Reply {
	prog, tr := o.controller.Advance(next.Progress, next.Record)
	next.Progress = prog
	if tr == nil {
		return Reply{Message: join(lead, o.ask(next, ambiguous, count))}
	}

	next.Transitions = append(next.Transitions, *tr)
	observability.LoggerFromContext(ctx).Info("stage advanced",
		"from", tr.From, "to", tr.To, "forced", tr.Forced, "skipped", tr.Skipped)

	rep := Reply{Transition: tr}
	note := forcedNote(o.schema, tr)
	if tr.Complete {
		rep.Message = join(lead, note, o.summary(next))
		return rep
	}
	def, _ := o.schema.Stage(tr.To)
	next.Progress.Questions = 1
	rep.Message = join(lead, note, stageIntro(def))
	return rep
}

// ask composes one question for the active stage: anomalies first, then the
// highest-priority missing field. Within the same priority a field the model
// found ambiguous goes first.
func (o *Orchestrator) ask(next *SessionState, ambiguous []string, count bool) string {
	rec := next.Record
	if count {
		next.Progress.Questions++
	}
	if names := rec.Anomalies(next.Progress.Stage); len(names) > 0 {
		return clarify(rec, names)
	}
	pending := rec.Pending(next.Progress.Stage)
	if len(pending) == 0 {
		return "還有其他想補充的內容嗎？"
	}
	for _, f := range pending {
		if f.Required != pending[0].Required {
			break
		}
		if slices.Contains(ambiguous, f.Name) {
			return fmt.Sprintf("您提到的「%s」我不太確定，%s", f.Label, f.Question)
		}
	}
	return pending[0].Question
}

func (o *Orchestrator) command(ctx context.Context, next *SessionState, cmd command) Reply {
	switch cmd.kind {
	case cmdCorrect:
		return o.correct(ctx, next, cmd)
	default:
		return o.confirm(ctx, next)
	}
}

func (o *Orchestrator) correct(ctx context.Context, next *SessionState, cmd command) Reply {
	rec := next.Record
	f, ok := o.schema.Lookup(cmd.field)
	if cmd.field == "" || !ok {
		return Reply{Message: fmt.Sprintf("找不到欄位「%s」。用法：修改 欄位名稱 新內容，例如「修改 科系名稱 資訊工程學系」。", cmd.field)}
	}

	v, ok := rec.Resolve(f.Name, f.Coerce(schema.Text(cmd.value)))
	if !ok {
		return Reply{Message: fmt.Sprintf("目前沒有可參照的「%s」，請直接輸入新內容。", f.Label)}
	}
	canon, err := o.detector.Check(f, v)
	if err != nil {
		return Reply{Message: fmt.Sprintf("「%s」的內容無法辨識：%s。", f.Label, formatHint(f))}
	}

	prev := rec.Value(f.Name)
	if err := rec.Correct(f.Name, canon); err != nil {
		return Reply{Message: fmt.Sprintf("無法修改「%s」。", f.Label)}
	}
	// The new value may break or repair a date range.
	outcome := o.detector.Validate(rec, []record.Change{{Field: f.Name, Prev: prev, Next: canon}})
	rec.Settle(outcome)
	observability.LoggerFromContext(ctx).Info("field corrected", "field", f.Name, "stage", f.Stage)

	var raised []string
	for _, vd := range outcome.Anomalies() {
		raised = append(raised, vd.Field)
	}
	var confirmed []string
	lead := ""
	if rec.Status(f.Name) == record.StatusConfirmed {
		confirmed = []string{f.Name}
		lead = echo(rec, confirmed, nil)
	}

	var rep Reply
	switch {
	case next.Progress.Complete:
		rep = Reply{Message: join(lead, clarify(rec, raised), o.summary(next))}
	case f.Stage != next.Progress.Stage:
		// Another stage's field: the active stage keeps its progress.
		rep = Reply{Message: join(lead, clarify(rec, raised), o.ask(next, nil, false))}
	default:
		next.Progress.Turns++
		rep = o.advance(ctx, next, lead, nil, false)
	}
	rep.Confirmed = confirmed
	rep.Anomalies = raised
	return rep
}

func (o *Orchestrator) confirm(ctx context.Context, next *SessionState) Reply {
	rec := next.Record
	// Exited stages can hold anomalies raised by a correction.
	active := o.schema.Index(next.Progress.Stage)
	var accepted []string
	for i, st := range o.schema.Stages {
		if i <= active {
			accepted = append(accepted, rec.Override(st.ID)...)
		}
	}

	lead := "目前沒有需要確認的項目。"
	if len(accepted) > 0 {
		lead = echo(rec, accepted, nil)
		observability.LoggerFromContext(ctx).Info("anomalies overridden", "fields", accepted)
	}

	var rep Reply
	if next.Progress.Complete {
		rep = Reply{Message: join(lead, o.summary(next))}
	} else {
		next.Progress.Turns++
		rep = o.advance(ctx, next, lead, nil, false)
	}
	rep.Confirmed = accepted
	return rep
}

func (o *Orchestrator) summary(st *SessionState) string {
	return renderSummary(o.schema, st.Record.Summary(o.now()))
}

func (o *Orchestrator) finish(st *SessionState, rep Reply) Reply {
	rep.Stage = st.Progress.Stage
	rep.Complete = st.Progress.Complete
	if rep.Complete {
		rep.Progress = 100
		sum := st.Record.Summary(o.now())
		rep.Summary = &sum
		return rep
	}
	if def, ok := o.schema.Stage(st.Progress.Stage); ok {
		rep.Progress = def.Progress
	}
	return rep
}

// internal/journey/journey.go
package journey

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"loan-journey/internal/common/config"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/metrics"
	"loan-journey/internal/common/observability"
	"loan-journey/internal/common/random"
	"loan-journey/internal/models"
	"loan-journey/internal/store"
	masteragent "loan-journey/internal/workers/journey/master-agent"
	salesagent "loan-journey/internal/workers/journey/sales-agent"
	sanctionagent "loan-journey/internal/workers/journey/sanction-agent"
	underwritingagent "loan-journey/internal/workers/journey/underwriting-agent"
	verificationagent "loan-journey/internal/workers/journey/verification-agent"

	"go.opentelemetry.io/otel/codes"
)

const (
	WelcomeMessage = "Welcome to our NBFC Loan Assistance System! 🏦\n\n" +
		"I'm here to help you with your personal loan application. " +
		"We offer quick processing and competitive interest rates.\n\n" +
		"To get started, may I have your full name?"

	ApologyMessage = "I apologize for the technical difficulty. Please try again."

	ConcludedMessage = "This application has already been concluded. " +
		"Please start a new session if you would like to apply again."

	rejectedIDNotice = "\nYour application ID is: %s\n\n" +
		"You can contact our support team with this ID for any queries."
	approvedIDNotice = "\n📋 Your application ID is: %s\n\nPlease keep this ID for future reference."
)

// Notifier is told about every stored decision.
type Notifier interface {
	NotifyDecision(ctx context.Context, app models.StoredApplication) error
}

// Agents are the stage handlers a journey drives.
type Agents struct {
	Master       *masteragent.Handler
	Sales        *salesagent.Handler
	Verification *verificationagent.Handler
	Underwriting *underwritingagent.Handler
	Sanction     *sanctionagent.Handler
}

// NewAgents builds every agent with its registry configuration. rnd feeds
// verification and underwriting; now stamps sanctions.
func NewAgents(cfg config.JourneyConfig, rnd random.Source, now func() time.Time, log logger.Logger) Agents {
	return Agents{
		Master:       masteragent.NewHandler(masteragent.LoadConfig(), log),
		Sales:        salesagent.NewHandler(salesagent.LoadConfig(), log),
		Verification: verificationagent.NewHandler(verificationagent.LoadConfig(cfg), rnd, log),
		Underwriting: underwritingagent.NewHandler(underwritingagent.LoadConfig(), rnd, log),
		Sanction:     sanctionagent.NewHandler(sanctionagent.LoadConfig(), now, log),
	}
}

// Journey routes applicant messages through the agents. It holds no
// per-session state and may be shared.
type Journey struct {
	agents   Agents
	store    store.Store
	notifier Notifier
	obs      *observability.Observability
	delay    time.Duration
	logger   logger.Logger
}

type Option func(*Journey)

func WithNotifier(n Notifier) Option {
	return func(j *Journey) { j.notifier = n }
}

func WithObservability(o *observability.Observability) Option {
	return func(j *Journey) { j.obs = o }
}

// WithHandoffDelay overrides journey.handoff_delay_ms.
func WithHandoffDelay(d time.Duration) Option {
	return func(j *Journey) { j.delay = d }
}

func New(agents Agents, s store.Store, cfg config.JourneyConfig, log logger.Logger, opts ...Option) *Journey {
	j := &Journey{
		agents: agents,
		store:  s,
		obs:    observability.NewNoop(),
		delay:  time.Duration(cfg.HandoffDelayMs) * time.Millisecond,
		logger: log,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start greets the applicant.
func (j *Journey) Start(s *Session) []models.Response {
	j.logger.Info("session started", map[string]interface{}{"sessionId": s.ID})
	return []models.Response{models.Say(WelcomeMessage)}
}

// HandleMessage applies one applicant message and runs any automatic
// hand-offs it triggers. If anything fails the session record is restored
// to its state before the message and a single apology is returned.
func (j *Journey) HandleMessage(ctx context.Context, s *Session, text string) (responses []models.Response) {
	start := time.Now()
	log := j.logger.WithFields(map[string]interface{}{
		"sessionId": s.ID,
		"stage":     s.Record.Stage,
	})

	before := s.Record.Clone()
	beforeID := s.ApplicationID
	rollback := func() {
		s.Record = before
		s.ApplicationID = beforeID
	}

	ctx, span := j.obs.StartTurn(ctx, s.ID, string(s.Record.Stage))
	defer span.End()

	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling message", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			span.SetStatus(codes.Error, fmt.Sprint(r))
			rollback()
			responses = []models.Response{models.Fail(ApologyMessage)}
			outcome = "error"
		}
		j.obs.RecordTurn(ctx, outcome, time.Since(start))
	}()

	out, err := j.turn(ctx, s, text)
	if err != nil {
		log.Error("turn failed", map[string]interface{}{"error": err})
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		rollback()
		outcome = "error"
		return []models.Response{models.Fail(ApologyMessage)}
	}

	if s.Concluded() {
		outcome = string(s.Record.Stage)
	}
	log.Debug("turn handled", map[string]interface{}{
		"to":        s.Record.Stage,
		"responses": len(out),
	})
	return out
}

func (j *Journey) turn(ctx context.Context, s *Session, text string) ([]models.Response, error) {
	if s.Concluded() {
		return []models.Response{models.Warn(ConcludedMessage)}, nil
	}

	agent := models.AgentMaster
	if s.Record.Stage.IsSales() {
		agent = models.AgentSales
	}

	var out []models.Response
	for first := true; agent != ""; first = false {
		if !first {
			if err := j.pause(ctx); err != nil {
				return nil, err
			}
		}

		stepCtx, span := j.obs.StartStep(ctx, string(agent))
		responses, next, err := j.step(stepCtx, s, agent, text)
		span.End()
		if err != nil {
			return nil, fmt.Errorf("%s step: %w", agent, err)
		}

		out = append(out, responses...)
		text = ""
		agent = next
	}
	return out, nil
}

// step runs one agent against the session record and stores the outcome
// when the agent concluded the journey.
func (j *Journey) step(ctx context.Context, s *Session, agent models.Agent, text string) ([]models.Response, models.Agent, error) {
	rec := s.Record

	switch agent {
	case models.AgentMaster:
		out, err := j.agents.Master.Execute(ctx, &masteragent.Input{Message: text, Application: rec})
		if err != nil {
			return nil, "", err
		}
		s.Record = out.Application
		responses, err := j.settle(ctx, s, out.Responses, nil)
		return responses, out.Handoff, err

	case models.AgentSales:
		out, err := j.agents.Sales.Execute(ctx, &salesagent.Input{Message: text, Application: rec})
		if err != nil {
			return nil, "", err
		}
		s.Record = out.Application
		responses, err := j.settle(ctx, s, out.Responses, nil)
		return responses, out.Handoff, err

	case models.AgentVerification:
		out, err := j.agents.Verification.Execute(ctx, &verificationagent.Input{Application: rec})
		if err != nil {
			return nil, "", err
		}
		s.Record = out.Application
		return out.Responses, out.Handoff, nil

	case models.AgentUnderwriting:
		out, err := j.agents.Underwriting.Execute(ctx, &underwritingagent.Input{Application: rec})
		if err != nil {
			return nil, "", err
		}
		s.Record = out.Application
		responses, err := j.settle(ctx, s, out.Responses, nil)
		return responses, out.Handoff, err

	case models.AgentSanction:
		out, err := j.agents.Sanction.Execute(ctx, &sanctionagent.Input{Application: rec})
		if err != nil {
			return nil, "", err
		}
		s.Record = out.Application
		responses, err := j.settle(ctx, s, out.Responses, &out.Sanction)
		return responses, "", err
	}

	return nil, "", fmt.Errorf("unknown agent %q", agent)
}

// settle persists a decided application and appends the id announcement.
// Records without a name are never stored.
func (j *Journey) settle(ctx context.Context, s *Session, responses []models.Response, sanction *models.SanctionRecord) ([]models.Response, error) {
	rec := s.Record
	if rec.Name == "" {
		return responses, nil
	}

	var (
		status models.ApplicationStatus
		reason string
		notice string
	)
	switch {
	case sanction != nil:
		status = models.StatusApproved
		notice = approvedIDNotice
	case rec.Stage == models.StageRejected:
		status = models.StatusRejected
		if len(responses) > 0 {
			reason = responses[len(responses)-1].Content
		}
		notice = rejectedIDNotice
	case rec.Stage == models.StageUnderwritingRejected:
		status = models.StatusRejected
		if rec.EligibilityResult != nil {
			reason = rec.EligibilityResult.Justification
		}
		notice = rejectedIDNotice
	default:
		return responses, nil
	}

	id, err := j.store.Persist(ctx, rec, status, sanction, reason)
	if err != nil {
		return nil, err
	}
	s.ApplicationID = id
	metrics.ApplicationsPersisted.WithLabelValues(string(status)).Inc()
	j.logger.Info("application stored", map[string]interface{}{
		"sessionId":     s.ID,
		"applicationId": id,
		"status":        status,
	})

	j.notify(ctx, models.StoredApplication{
		ID:              id,
		Data:            rec,
		Status:          status,
		Sanction:        sanction,
		RejectionReason: reason,
	})

	return append(responses, models.Say(fmt.Sprintf(notice, id))), nil
}

// notify is best effort; the decision is already stored.
func (j *Journey) notify(ctx context.Context, app models.StoredApplication) {
	if j.notifier == nil {
		return
	}
	if err := j.notifier.NotifyDecision(ctx, app); err != nil {
		j.logger.Warn("decision notification failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err,
		})
	}
}

// pause paces automatic hand-offs.
func (j *Journey) pause(ctx context.Context) error {
	if j.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(j.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

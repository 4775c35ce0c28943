// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-journey/internal/common/camunda"
	"loan-journey/internal/common/config"
	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/random"
	"loan-journey/internal/journey"
	"loan-journey/internal/models"
	"loan-journey/internal/store"

	persistapplication "loan-journey/internal/workers/application/persist-application"
	sendnotification "loan-journey/internal/workers/application/send-notification"
	masteragent "loan-journey/internal/workers/journey/master-agent"
	salesagent "loan-journey/internal/workers/journey/sales-agent"
	sanctionagent "loan-journey/internal/workers/journey/sanction-agent"
	underwritingagent "loan-journey/internal/workers/journey/underwriting-agent"
	verificationagent "loan-journey/internal/workers/journey/verification-agent"
)

var issuedAt = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

// approvable passes verification and leaves the credit score unjittered.
var approvable = random.Fixed{Float: 0, Int: 50}

func redisConfig(mr *miniredis.Miniredis) *config.Config {
	cfg := &config.Config{}
	cfg.Storage.Backend = config.BackendRedis
	cfg.Storage.RedisKey = "e2e:applications"
	cfg.Database.Redis.Address = mr.Addr()
	cfg.Journey.VerificationPassRate = 0.95
	return cfg
}

func openRedisStore(t *testing.T, cfg *config.Config) store.Store {
	t.Helper()
	s, closeFn, err := store.Open(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err, "❌ Redis-backed store failed to open")
	t.Cleanup(func() { closeFn() })
	return s
}

func newJourney(t *testing.T, s store.Store, cfg *config.Config) *journey.Journey {
	log := logger.NewTestLogger(t)
	agents := journey.NewAgents(cfg.Journey, approvable, func() time.Time { return issuedAt }, log)
	return journey.New(agents, s, cfg.Journey, log)
}

func converse(t *testing.T, j *journey.Journey, s *journey.Session, messages ...string) []models.Response {
	t.Helper()
	var last []models.Response
	for _, m := range messages {
		last = j.HandleMessage(context.Background(), s, m)
		require.NotEmpty(t, last)
		require.NotEqual(t, journey.ApologyMessage, last[0].Content, "turn %q failed", m)
	}
	return last
}

// ==========================
// 1. Conversation against Redis
// ==========================

func TestConversation_ApprovedApplicationIsStoredInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfig(mr)
	s := openRedisStore(t, cfg)
	j := newJourney(t, s, cfg)

	t.Log("🚀 Starting applicant conversation...")
	session := journey.NewSession()
	welcome := j.Start(session)
	require.Len(t, welcome, 1)

	converse(t, j, session, "Ananya Iyer", "29", "salaried", "₹80,000", "5000", "4,00,000", "Mumbai", "+91 98200 12345")
	assert.Equal(t, models.StageSalesCollectPurpose, session.Record.Stage)
	assert.Equal(t, "919820012345", session.Record.Phone)

	out := converse(t, j, session, "home renovation", "36", "I accept")
	assert.Equal(t, models.StageCompleted, session.Record.Stage)
	assert.Contains(t, out[len(out)-1].Content, session.ApplicationID)
	t.Log("✅ Conversation completed with sanction")

	list, err := mr.List("e2e:applications")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// A fresh store over the same Redis sees the application.
	reopened := openRedisStore(t, cfg)
	app, err := reopened.GetByID(context.Background(), session.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, app.Status)
	assert.Equal(t, "Ananya Iyer", app.Data.Name)
	require.NotNil(t, app.Sanction)
	assert.Equal(t, float64(400000), app.Sanction.ApprovedAmount)
	assert.Equal(t, 36, app.Sanction.Tenure)
	assert.Equal(t, int64(8000), app.Sanction.ProcessingFee)
	t.Log("✅ Stored application read back from Redis")
}

func TestConversation_NonFiniteAmountIsReprompted(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfig(mr)
	s := openRedisStore(t, cfg)
	j := newJourney(t, s, cfg)

	session := journey.NewSession()
	j.Start(session)
	converse(t, j, session, "Kiran", "31", "Salaried", "65000", "0")

	for _, amount := range []string{"1e999", "Infinity"} {
		out := j.HandleMessage(context.Background(), session, amount)
		require.Len(t, out, 1)
		assert.Equal(t, models.Warn("Please provide a valid loan amount in numbers."), out[0], amount)
		assert.Equal(t, models.StageCollectLoanAmount, session.Record.Stage)
		assert.Zero(t, session.Record.LoanAmount)
	}

	converse(t, j, session, "300000", "Pune", "9822012345", "education", "24", "yes")
	assert.Equal(t, models.StageCompleted, session.Record.Stage)

	list, err := mr.List("e2e:applications")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	t.Log("✅ Non-finite amount re-prompted, application stored")
}

func TestConversation_ConcurrentSessionsShareStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfig(mr)
	s := openRedisStore(t, cfg)
	j := newJourney(t, s, cfg)

	scripts := map[string][]string{
		"approved": {"Meera", "40", "Salaried", "60000", "0", "200000", "Delhi", "9811122233", "travel", "12", "yes"},
		"underage": {"Rohan", "20"},
		"low pay":  {"Kabir", "30", "Self-employed", "12000"},
		"declined": {"Farah", "33", "Salaried", "45000", "0", "150000", "Kochi", "9847012345", "medical", "24", "no"},
		"too much": {"Dev", "45", "business", "40000", "10000", "3000000", "Jaipur", "9414012345", "expansion", "60", "agree"},
	}

	var wg sync.WaitGroup
	for name, script := range scripts {
		wg.Add(1)
		go func(name string, script []string) {
			defer wg.Done()
			session := journey.NewSession()
			for _, m := range script {
				j.HandleMessage(context.Background(), session, m)
			}
			assert.True(t, session.Concluded(), "%s: stage %s", name, session.Record.Stage)
			assert.NotEmpty(t, session.ApplicationID, name)
		}(name, script)
	}
	wg.Wait()

	stats, err := store.Stats(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 4, stats.Rejected)
	assert.Equal(t, 20, stats.Percent(stats.Approved))
	t.Logf("✅ Dashboard: %+v", stats)
}

// ==========================
// 2. Worker chain over process variables
// ==========================

// process mimics the engine: each job sees the merged variables, is checked
// against its task's input schema, and its output is merged back.
type process struct {
	t    *testing.T
	vars map[string]interface{}
	key  int64
}

func (p *process) job(taskType string) entities.Job {
	p.key++
	raw, err := json.Marshal(p.vars)
	require.NoError(p.t, err)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:           p.key,
		Type:          taskType,
		BpmnProcessId: "personal-loan-journey",
		Variables:     string(raw),
	}}
}

func (p *process) merge(output interface{}) {
	raw, err := json.Marshal(output)
	require.NoError(p.t, err)
	var fields map[string]interface{}
	require.NoError(p.t, json.Unmarshal(raw, &fields))
	for k, v := range fields {
		p.vars[k] = v
	}
}

func run[I any, O any](p *process, taskType string, schema map[string]interface{}, execute func(context.Context, *I) (*O, error)) *O {
	p.t.Helper()
	var input I
	require.NoError(p.t, camunda.DecodeVariables(p.job(taskType), schema, &input), "❌ %s rejected its variables", taskType)
	out, err := execute(context.Background(), &input)
	require.NoError(p.t, err, "❌ %s failed", taskType)
	p.merge(out)
	return out
}

func TestWorkerChain_ApprovedThroughJobVariables(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfig(mr)
	s := openRedisStore(t, cfg)
	log := logger.NewTestLogger(t)

	master := masteragent.NewHandler(masteragent.LoadConfig(), log)
	sales := salesagent.NewHandler(salesagent.LoadConfig(), log)
	verify := verificationagent.NewHandler(verificationagent.LoadConfig(cfg.Journey), approvable, log)
	underwrite := underwritingagent.NewHandler(underwritingagent.LoadConfig(), approvable, log)
	sanction := sanctionagent.NewHandler(sanctionagent.LoadConfig(), func() time.Time { return issuedAt }, log)
	persist := persistapplication.NewHandler(persistapplication.LoadConfig(), s, log)
	notify := sendnotification.NewHandler(sendnotification.LoadConfig(cfg.Notifications), nil, nil, log)

	p := &process{t: t, vars: map[string]interface{}{"application": models.NewApplicationRecord()}}

	t.Log("🔄 Master agent collecting details...")
	for _, m := range []string{"Sanjay", "38", "Salaried", "70000", "0", "500000", "Hyderabad", "9000012345"} {
		p.vars["message"] = m
		run(p, masteragent.TaskType, masteragent.LoadConfig().Schema, master.Execute)
	}
	assert.Equal(t, string(models.StageDataCollectionComplete), p.vars["application"].(map[string]interface{})["stage"])
	assert.Equal(t, string(models.AgentSales), p.vars["handoff"])

	t.Log("🔄 Sales agent...")
	p.vars["message"] = ""
	run(p, salesagent.TaskType, salesagent.LoadConfig().Schema, sales.Execute)
	for _, m := range []string{"car purchase", "48", "yes"} {
		p.vars["message"] = m
		run(p, salesagent.TaskType, salesagent.LoadConfig().Schema, sales.Execute)
	}
	assert.Equal(t, string(models.AgentVerification), p.vars["handoff"])

	t.Log("🔄 Verification, underwriting, sanction...")
	v := run(p, verificationagent.TaskType, verificationagent.LoadConfig(cfg.Journey).Schema, verify.Execute)
	assert.True(t, v.Verified)
	u := run(p, underwritingagent.TaskType, underwritingagent.LoadConfig().Schema, underwrite.Execute)
	assert.Equal(t, models.DecisionApproved, u.Decision)
	assert.Equal(t, 790, u.Application.CreditScore)
	sc := run(p, sanctionagent.TaskType, sanctionagent.LoadConfig().Schema, sanction.Execute)
	assert.Equal(t, 13.5, sc.Sanction.InterestRate)

	t.Log("🔄 Persist and notify...")
	p.vars["status"] = string(models.StatusApproved)
	stored := run(p, persistapplication.TaskType, persistapplication.LoadConfig().Schema, persist.Execute)
	assert.Regexp(t, `^APP-\d+-[0-9A-Z]{9}$`, stored.ApplicationID)

	n := run(p, sendnotification.TaskType, sendnotification.LoadConfig(cfg.Notifications).Schema, notify.Execute)
	assert.Equal(t, sendnotification.StatusDisabled, n.Status)

	app, err := s.GetByID(context.Background(), stored.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StageCompleted, app.Data.Stage)
	assert.Equal(t, "car purchase", app.Data.LoanPurpose)
	require.NotNil(t, app.Sanction)
	assert.Equal(t, sc.Sanction.EMI, app.Sanction.EMI)
	t.Log("✅ Worker chain completed")
}

func TestWorkerChain_SchemaRejectsIncompleteApplication(t *testing.T) {
	p := &process{t: t, vars: map[string]interface{}{
		"application": map[string]interface{}{"stage": "verification_complete", "monthlyIncome": 50000},
	}}

	var input underwritingagent.Input
	err := camunda.DecodeVariables(p.job(underwritingagent.TaskType), underwritingagent.LoadConfig().Schema, &input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidJobVariables)
}

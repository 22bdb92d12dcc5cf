package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"iotguardian/internal/ai"
	"iotguardian/internal/logx"
	"iotguardian/internal/plans"
	"iotguardian/internal/repository"
)

// quotaWindow outlives a calendar month so every monthly key expires on its own.
const quotaWindow = 32 * 24 * time.Hour

// TroubleshootRequest is the body of an AI troubleshooting call.
type TroubleshootRequest struct {
	ai.Request
	SelectedModel string `json:"selectedModel"`
}

// TroubleshootResult is the diagnosis plus the caller's remaining allowance.
type TroubleshootResult struct {
	ai.Diagnosis
	Model     string `json:"model"`
	Remaining int    `json:"remaining"`
}

// TroubleshootService asks a completion provider for advice within the plan's monthly quota.
type TroubleshootService struct {
	completers map[string]ai.Completer
	quota      repository.QuotaCounter
	timeout    time.Duration
	observe    func(provider, outcome string)
	now        func() time.Time

	mu    sync.Mutex
	gates map[string]*semaphore.Weighted
}

func NewTroubleshootService(completers map[string]ai.Completer, quota repository.QuotaCounter, timeout time.Duration) *TroubleshootService {
	if completers == nil {
		completers = map[string]ai.Completer{}
	}
	return &TroubleshootService{
		completers: completers,
		quota:      quota,
		timeout:    timeout,
		now:        time.Now,
		gates:      map[string]*semaphore.Weighted{},
	}
}

// gate serializes quota-limited queries of one user so the check and the increment cannot interleave.
func (s *TroubleshootService) gate(userID string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[userID]
	if !ok {
		g = semaphore.NewWeighted(1)
		s.gates[userID] = g
	}
	return g
}

// Observe registers a callback invoked once per provider call.
func (s *TroubleshootService) Observe(fn func(provider, outcome string)) {
	s.observe = fn
}

func (s *TroubleshootService) record(provider, outcome string) {
	if s.observe != nil {
		s.observe(provider, outcome)
	}
}

// QuotaKey is the counter key for a user in the month containing now.
func QuotaKey(userID string, now time.Time) string {
	return fmt.Sprintf("ai:quota:%s:%s", userID, now.UTC().Format("2006-01"))
}

func (req *TroubleshootRequest) validate() error {
	v := &ValidationError{}
	if req.Temperature < -50 || req.Temperature > 100 {
		v.add("temperature", "Temperature must be between -50 and 100.")
	}
	if req.Humidity < 0 || req.Humidity > 100 {
		v.add("humidity", "Humidity must be between 0 and 100.")
	}
	req.SelectedModel = strings.ToLower(strings.TrimSpace(req.SelectedModel))
	if req.SelectedModel == "" {
		req.SelectedModel = ai.ProviderGemini
	}
	if req.SelectedModel != ai.ProviderGemini && req.SelectedModel != ai.ProviderChatGPT {
		v.add("selectedModel", "selectedModel must be gemini or chatgpt.")
	}
	return v.err()
}

// Remaining reports the queries left this month, or plans.Unlimited.
func (s *TroubleshootService) Remaining(ctx context.Context, userID string, features plans.Features) (int, error) {
	limit := features.AIQueriesPerMonth
	if limit == plans.Unlimited {
		return plans.Unlimited, nil
	}
	used, err := s.quota.Count(ctx, QuotaKey(userID, s.now()))
	if err != nil {
		return 0, fmt.Errorf("read ai quota: %w", err)
	}
	if left := limit - int(used); left > 0 {
		return left, nil
	}
	return 0, nil
}

// Diagnose runs one troubleshooting query. Only successful answers count against the quota.
func (s *TroubleshootService) Diagnose(ctx context.Context, actor Actor, req TroubleshootRequest) (TroubleshootResult, error) {
	if err := req.validate(); err != nil {
		return TroubleshootResult{}, err
	}
	if actor.Features.AIQueriesPerMonth == 0 {
		return TroubleshootResult{}, newError(ErrPlanRequired, "AI troubleshooting requires an active subscription.")
	}
	if actor.Features.AIQueriesPerMonth != plans.Unlimited {
		g := s.gate(actor.UserID)
		if err := g.Acquire(ctx, 1); err != nil {
			return TroubleshootResult{}, err
		}
		defer g.Release(1)
	}
	remaining, err := s.Remaining(ctx, actor.UserID, actor.Features)
	if err != nil {
		return TroubleshootResult{}, err
	}
	if remaining == 0 {
		return TroubleshootResult{}, newError(ErrQuotaExceeded, "You have used all %d AI queries for this month.", actor.Features.AIQueriesPerMonth)
	}

	completer, ok := s.completers[req.SelectedModel]
	if !ok {
		return TroubleshootResult{}, newError(ErrUnavailable, "The %s model is not configured.", req.SelectedModel)
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	reply, err := completer.Complete(callCtx, ai.SystemPrompt(), ai.BuildPrompt(req.Request))
	if err != nil {
		s.record(req.SelectedModel, "error")
		logx.Error().Err(err).Str("provider", req.SelectedModel).Msg("AI completion failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return TroubleshootResult{}, newError(ErrUpstream, "The AI provider did not respond in time.")
		}
		return TroubleshootResult{}, newError(ErrUpstream, "AI failed to generate a response.")
	}
	diagnosis, err := ai.ParseDiagnosis(reply)
	if err != nil {
		s.record(req.SelectedModel, "invalid")
		logx.Warn().Err(err).Str("provider", req.SelectedModel).Msg("Unparsable AI reply")
		return TroubleshootResult{}, newError(ErrUpstream, "AI failed to generate a response.")
	}
	s.record(req.SelectedModel, "success")

	result := TroubleshootResult{Diagnosis: diagnosis, Model: req.SelectedModel, Remaining: plans.Unlimited}
	if actor.Features.AIQueriesPerMonth != plans.Unlimited {
		used, err := s.quota.Increment(ctx, QuotaKey(actor.UserID, s.now()), quotaWindow)
		if err != nil {
			logx.Error().Err(err).Str("userId", actor.UserID).Msg("failed to record ai usage")
		}
		result.Remaining = max(actor.Features.AIQueriesPerMonth-int(used), 0)
	}
	return result, nil
}

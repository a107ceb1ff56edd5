package answer

import (
	"context"
	"testing"

	"github.com/ellie-edu/ellie/internal/domain"
	"github.com/ellie-edu/ellie/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	m.Run()
}

type mockRouter struct {
	decision    domain.RoutingDecision
	err         error
	lastHistory []domain.Message
	lastPreview []domain.ScoredChunk
}

func (m *mockRouter) Route(_ context.Context, _, _ string, history []domain.Message, preview []domain.ScoredChunk) (domain.RoutingDecision, error) {
	m.lastHistory = history
	m.lastPreview = preview
	if m.err != nil {
		return domain.RoutingDecision{}, m.err
	}
	return m.decision, nil
}

type mockAssembler struct {
	preview      []domain.ScoredChunk
	previewErr   error
	assembled    domain.AssembledContext
	assembleErr  error
	lastDecision domain.RoutingDecision
	lastPreviewK int
}

func (m *mockAssembler) Preview(_ context.Context, _, _ string, k int) ([]domain.ScoredChunk, error) {
	m.lastPreviewK = k
	return m.preview, m.previewErr
}

func (m *mockAssembler) Assemble(_ context.Context, _, _ string, decision domain.RoutingDecision) (domain.AssembledContext, error) {
	m.lastDecision = decision
	if m.assembleErr != nil {
		return domain.AssembledContext{}, m.assembleErr
	}
	return m.assembled, nil
}

type mockCompleter struct {
	response string
	err      error
	calls    int
	lastReq  domain.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

type mockConversations struct {
	history     []domain.Message
	historyErr  error
	appendErr   error
	appendCalls int
	lastUser    domain.Message
	lastAsst    domain.Message
}

func (m *mockConversations) History(_ context.Context, _, _ string, _ int) ([]domain.Message, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

func (m *mockConversations) AppendExchange(_ context.Context, _, _ string, user, assistant domain.Message) error {
	m.appendCalls++
	m.lastUser = user
	m.lastAsst = assistant
	return m.appendErr
}

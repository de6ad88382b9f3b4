package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthmate-be/internal/constant"
	"healthmate-be/internal/dto"
	"healthmate-be/pkg/llm"
	"healthmate-be/pkg/memory"
	"healthmate-be/pkg/rag/contextbuilder"
	"healthmate-be/pkg/rag/router"
	"healthmate-be/pkg/store"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fixedClassifier struct {
	decision router.Decision
}

func (f fixedClassifier) Classify(_ context.Context, _ string) (router.Verdict, error) {
	return router.Verdict{Decision: f.decision, RawToken: "stub"}, nil
}

type recordingRetriever struct {
	passages []store.Passage
	err      error
	calls    int
}

func (r *recordingRetriever) Retrieve(_ context.Context, _ string, _ int, _ bool) ([]store.Passage, error) {
	r.calls++
	return r.passages, r.err
}

type capturingProvider struct {
	reply    string
	err      error
	messages []llm.Message
}

func (p *capturingProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	p.messages = history
	return p.reply, p.err
}

func (p *capturingProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func newTestChatService(t *testing.T, decision router.Decision, ret *recordingRetriever, provider *capturingProvider) (IChatService, *memory.Store) {
	t.Helper()
	convStore, err := memory.NewStore(filepath.Join(t.TempDir(), "conversations.json"))
	require.NoError(t, err)

	builder := contextbuilder.NewBuilder(contextbuilder.EstimatingCounter{}, 2000)
	svc := NewChatService(convStore, fixedClassifier{decision: decision}, ret, builder, provider, nil, nopLogger{}, ChatConfig{})
	return svc, convStore
}

func TestSendChatEmptyKnowledgeBaseStillReplies(t *testing.T) {
	ret := &recordingRetriever{}
	provider := &capturingProvider{reply: "Cool the burn under running water for 20 minutes."}
	svc, convStore := newTestChatService(t, router.DecisionMedical, ret, provider)

	res, err := svc.SendChat(context.Background(), &dto.SendChatRequest{
		ConversationId: "c1",
		Message:        "how to treat a burn",
	})
	require.NoError(t, err)

	assert.Equal(t, "medical", res.Branch)
	assert.Zero(t, res.NumPassages)
	assert.NotEmpty(t, res.Reply.Content)

	// base prompt only, no knowledge-base excerpts
	require.NotEmpty(t, provider.messages)
	assert.Equal(t, constant.InstructorSystemPrompt, provider.messages[0].Content)

	msgs, err := convStore.GetMessages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, msgs[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, msgs[1].Role)
	assert.Equal(t, provider.reply, msgs[1].Content)
}

func TestSendChatCasualNeverTouchesRetriever(t *testing.T) {
	ret := &recordingRetriever{}
	provider := &capturingProvider{reply: "Hi! I can help with first aid."}
	svc, _ := newTestChatService(t, router.DecisionCasual, ret, provider)

	res, err := svc.SendChat(context.Background(), &dto.SendChatRequest{
		ConversationId: "c1",
		Message:        "hello there",
	})
	require.NoError(t, err)

	assert.Equal(t, "casual", res.Branch)
	assert.Zero(t, ret.calls)
	assert.Equal(t, constant.ChatterSystemPrompt, provider.messages[0].Content)
}

func TestSendChatMedicalUsesRetrievedContext(t *testing.T) {
	ret := &recordingRetriever{passages: []store.Passage{
		{Content: "Run the burn under cool water.", Metadata: store.ChunkMetadata{Source: "burns.md"}, Score: 0.9},
	}}
	provider := &capturingProvider{reply: "Here is what to do."}
	svc, _ := newTestChatService(t, router.DecisionMedical, ret, provider)

	res, err := svc.SendChat(context.Background(), &dto.SendChatRequest{
		ConversationId: "c1",
		Message:        "burned my hand",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.NumPassages)
	assert.Contains(t, res.Citations, "burns.md")
	assert.Contains(t, provider.messages[0].Content, "[Source 1] Run the burn under cool water.")
	assert.Contains(t, provider.messages[0].Content, "burned my hand")
}

func TestSendChatRetrievalFailureFallsBack(t *testing.T) {
	ret := &recordingRetriever{err: errors.New("index unreachable")}
	provider := &capturingProvider{reply: "General first-aid guidance."}
	svc, convStore := newTestChatService(t, router.DecisionMedical, ret, provider)

	res, err := svc.SendChat(context.Background(), &dto.SendChatRequest{
		ConversationId: "c1",
		Message:        "deep cut on my arm",
	})
	require.NoError(t, err)

	assert.Zero(t, res.NumPassages)
	assert.Equal(t, constant.InstructorSystemPrompt, provider.messages[0].Content)

	msgs, err := convStore.GetMessages("c1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSendChatGenerationFailureLeavesNoReply(t *testing.T) {
	ret := &recordingRetriever{}
	provider := &capturingProvider{err: errors.New("model unavailable")}
	svc, convStore := newTestChatService(t, router.DecisionCasual, ret, provider)

	_, err := svc.SendChat(context.Background(), &dto.SendChatRequest{
		ConversationId: "c1",
		Message:        "hello",
	})
	require.Error(t, err)

	// the user message is committed, the failed reply is not
	msgs, err := convStore.GetMessages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, constant.ChatMessageRoleUser, msgs[0].Role)
}

func TestSendChatTrimsHistory(t *testing.T) {
	ret := &recordingRetriever{}
	provider := &capturingProvider{reply: "ok"}

	convStore, err := memory.NewStore(filepath.Join(t.TempDir(), "conversations.json"))
	require.NoError(t, err)
	builder := contextbuilder.NewBuilder(contextbuilder.EstimatingCounter{}, 2000)
	svc := NewChatService(convStore, fixedClassifier{decision: router.DecisionCasual}, ret, builder, provider, nil, nopLogger{}, ChatConfig{MaxHistoryMessages: 2})

	_, err = convStore.GetState("c1", "")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = convStore.AddMessage("c1", constant.ChatMessageRoleUser, "older message")
		require.NoError(t, err)
	}

	_, err = svc.SendChat(context.Background(), &dto.SendChatRequest{ConversationId: "c1", Message: "latest"})
	require.NoError(t, err)

	// system prompt plus the 2 most recent turns
	require.Len(t, provider.messages, 3)
	assert.Equal(t, "latest", provider.messages[2].Content)
}

package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadchat/internal/catalog"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	return f.out, f.err
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(10), OutputTokens: aws.Int32(4), TotalTokens: aws.Int32(14)},
	}
}

func TestBedrockLLMClient_Complete(t *testing.T) {
	api := &fakeConverse{out: textOutput("  We open at 9am.  ")}
	client := NewBedrockLLMClient(api, "anthropic.test-model")

	resp, err := client.Complete(context.Background(), LLMRequest{
		System:      []string{"be brief", " "},
		Messages:    []ChatMessage{{Role: RoleUser, Content: "when do you open?"}},
		MaxTokens:   100,
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "We open at 9am.", resp.Text)
	assert.Equal(t, int32(14), resp.Usage.TotalTokens)
	assert.Equal(t, "anthropic.test-model", aws.ToString(api.input.ModelId))
	assert.Len(t, api.input.System, 1)
	require.NotNil(t, api.input.InferenceConfig)
	assert.Equal(t, int32(100), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
}

func TestBedrockLLMClient_Errors(t *testing.T) {
	client := NewBedrockLLMClient(&fakeConverse{}, "")
	_, err := client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)

	client = NewBedrockLLMClient(&fakeConverse{err: errors.New("throttled")}, "model")
	_, err = client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}}})
	assert.ErrorContains(t, err, "throttled")

	_, err = client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: "system", Content: "hi"}}})
	assert.ErrorContains(t, err, "unsupported role")

	client = NewBedrockLLMClient(&fakeConverse{out: textOutput("   ")}, "model")
	_, err = client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)
}

type stubLLM struct {
	resp  LLMResponse
	err   error
	calls int
	last  LLMRequest
}

func (s *stubLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.calls++
	s.last = req
	return s.resp, s.err
}

func TestFallbackLLMClient(t *testing.T) {
	primary := &stubLLM{err: errors.New("primary down")}
	secondary := &stubLLM{resp: LLMResponse{Text: "from secondary"}}

	resp, err := NewFallbackLLMClient(primary, secondary, nil).Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "from secondary", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)

	_, err = NewFallbackLLMClient(primary, nil, nil).Complete(context.Background(), LLMRequest{})
	assert.ErrorContains(t, err, "primary down")

	ok := &stubLLM{resp: LLMResponse{Text: "primary"}}
	unused := &stubLLM{}
	resp, err = NewFallbackLLMClient(ok, unused, nil).Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Text)
	assert.Zero(t, unused.calls)
}

func testSnapshot() catalog.Snapshot {
	return catalog.Snapshot{
		BusinessID: "biz-1",
		Services:   []catalog.Service{{Name: "Veneers", Price: "$800 - $2,500", Description: "Porcelain shells."}},
		Contact:    catalog.ContactDetails{Phone: "555-000-1111"},
		FAQs:       []catalog.FAQ{{Question: "Do you take insurance?", Answer: "We accept most PPO plans."}},
	}
}

func TestGenerator_ReplyRedactsAndGrounds(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "We accept most PPO plans."}}
	gen := NewGenerator(llm, nil, nil)

	reply, err := gen.Reply(context.Background(), "do you take insurance? email me at jo@x.com", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "We accept most PPO plans.", reply)

	require.Len(t, llm.last.Messages, 1)
	assert.NotContains(t, llm.last.Messages[0].Content, "jo@x.com")
	system := strings.Join(llm.last.System, "\n")
	assert.Contains(t, system, "Veneers ($800 - $2,500)")
	assert.Contains(t, system, "555-000-1111")
	assert.Contains(t, system, "Do you take insurance?")
}

func TestGenerator_ReplyApologizesOnFailure(t *testing.T) {
	gen := NewGenerator(&stubLLM{err: errors.New("quota exceeded")}, nil, nil)
	reply, err := gen.Reply(context.Background(), "hello?", testSnapshot())
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, Apology, reply)

	gen = NewGenerator(&stubLLM{resp: LLMResponse{Text: "  "}}, nil, nil)
	reply, err = gen.Reply(context.Background(), "hello?", testSnapshot())
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, Apology, reply)
}

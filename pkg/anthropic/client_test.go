package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

func TestResponseText(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "first "},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: "second"},
		},
	}
	assert.Equal(t, "first second", resp.Text())
}

func TestResponseTextEmpty(t *testing.T) {
	resp := &MessageResponse{}
	assert.Equal(t, "", resp.Text())
}

func TestToSDKMessagesTextOnly(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	require.Len(t, msgs[0].Content, 1)
}

func TestToSDKMessagesWithImage(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{
			Role:    "user",
			Content: "what product is this?",
			Image:   &ImageAttachment{MediaType: "image/jpeg", Data: "aGVsbG8="},
		},
	})
	require.Len(t, msgs, 1)
	// Image block precedes the text block.
	require.Len(t, msgs[0].Content, 2)
	assert.NotNil(t, msgs[0].Content[0].OfImage)
	assert.NotNil(t, msgs[0].Content[1].OfText)
}

func TestToSDKMessagesImageWithoutText(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{
			Role:  "user",
			Image: &ImageAttachment{MediaType: "image/png", Data: "aGVsbG8="},
		},
	})
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Content, 1)
	assert.NotNil(t, msgs[0].Content[0].OfImage)
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.Zero(t, usage.EstimateCost("unknown-model"))
}

func TestMockClientRoundTrip(t *testing.T) {
	m := &MockClient{}
	m.On("CreateMessage", mock.Anything, mock.Anything).Return(&MessageResponse{
		Content: []ContentBlock{{Type: "text", Text: "ok"}},
	}, nil)

	resp, err := m.CreateMessage(context.Background(), MessageRequest{Model: "claude-haiku-4-5-20251001"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	m.AssertExpectations(t)
}

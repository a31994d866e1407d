package utils

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIStrategy talks to vision chat models that take images as URL parts.
// Frames are passed as data URIs and the model picks the detail level.
type OpenAIStrategy struct {
	client       ChatCompletionClient
	systemPrompt string
}

func NewOpenAIStrategy(client ChatCompletionClient, systemPrompt string) *OpenAIStrategy {
	return &OpenAIStrategy{client: client, systemPrompt: systemPrompt}
}

func (s *OpenAIStrategy) Chat(ctx context.Context, model, prompt string, imageURIs []string, history *History) (string, error) {
	parts := make([]openai.ChatMessagePart, 0, len(imageURIs)+1)
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: prompt})
	for _, uri := range imageURIs {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    uri,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	userMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
	history.Append(Turn{Role: RoleUser, Text: prompt, Images: imageURIs, Raw: userMsg})

	turns := history.Turns()
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	for _, t := range turns {
		messages = append(messages, openAIMessage(t))
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: s.systemPrompt,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return "", &BackendError{Backend: "openai", Op: "chat", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &BackendError{Backend: "openai", Op: "chat", Err: errors.New("response has no choices")}
	}

	reply := resp.Choices[0].Message
	history.Append(Turn{Role: RoleAssistant, Text: reply.Content, Raw: reply})
	return reply.Content, nil
}

func openAIMessage(t Turn) openai.ChatCompletionMessage {
	if msg, ok := t.Raw.(openai.ChatCompletionMessage); ok {
		return msg
	}
	if t.Role == RoleAssistant || len(t.Images) == 0 {
		return openai.ChatCompletionMessage{Role: string(t.Role), Content: t.Text}
	}
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: t.Text}}
	for _, uri := range t.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: uri, Detail: openai.ImageURLDetailAuto},
		})
	}
	return openai.ChatCompletionMessage{Role: string(t.Role), MultiContent: parts}
}

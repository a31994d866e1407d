package utils

import (
	"context"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/HugeFrog24/gpt-video-chat/datauri"
)

// OllamaStrategy talks to local vision models served by Ollama, which take
// images as raw bytes rather than URLs.
type OllamaStrategy struct {
	client       OllamaChatClient
	systemPrompt string
}

func NewOllamaStrategy(client OllamaChatClient, systemPrompt string) *OllamaStrategy {
	return &OllamaStrategy{client: client, systemPrompt: systemPrompt}
}

func (s *OllamaStrategy) Chat(ctx context.Context, model, prompt string, imageURIs []string, history *History) (string, error) {
	images := make([]api.ImageData, 0, len(imageURIs))
	for _, uri := range imageURIs {
		data, _, err := datauri.Parse(uri)
		if err != nil {
			return "", err
		}
		images = append(images, api.ImageData(data))
	}
	userMsg := api.Message{Role: "user", Content: prompt, Images: images}
	history.Append(Turn{Role: RoleUser, Text: prompt, Images: imageURIs, Raw: userMsg})

	turns := history.Turns()
	messages := make([]api.Message, 0, len(turns)+1)
	for _, t := range turns {
		messages = append(messages, ollamaMessage(t))
	}
	messages = append(messages, api.Message{Role: "system", Content: s.systemPrompt})

	stream := false
	var (
		content strings.Builder
		reply   api.Message
	)
	err := s.client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		reply = resp.Message
		return nil
	})
	if err != nil {
		return "", &BackendError{Backend: "ollama", Op: "chat", Err: err}
	}

	if reply.Role == "" {
		reply.Role = "assistant"
	}
	// A non-streaming reply arrives in one callback; content is only
	// joined if the server splits it anyway.
	reply.Content = content.String()
	history.Append(Turn{Role: RoleAssistant, Text: reply.Content, Raw: reply})
	return reply.Content, nil
}

func ollamaMessage(t Turn) api.Message {
	if msg, ok := t.Raw.(api.Message); ok {
		return msg
	}
	msg := api.Message{Role: string(t.Role), Content: t.Text}
	for _, uri := range t.Images {
		if data, _, err := datauri.Parse(uri); err == nil {
			msg.Images = append(msg.Images, api.ImageData(data))
		}
	}
	return msg
}

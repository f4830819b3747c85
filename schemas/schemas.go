// Package schemas defines the message payloads exchanged between the
// gmonitor bot services over the shared message topics.
package schemas

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Topic identifies a message exchange topic.
type Topic string

// Topics used by the gmonitor bot services.
const (
	TopicGptBotResult  Topic = "gpt_bot_result"
	TopicGptBotRequest Topic = "gpt_bot_request"
)

// DtoType classifies the content of a GPT response.
type DtoType string

// GPT response content types.
const (
	DtoTypeText  DtoType = "text"
	DtoTypeImage DtoType = "image"
	DtoTypeAudio DtoType = "audio"
)

// GptDto carries one GPT response toward the chat delivery service.
type GptDto struct {
	Content string  `json:"content"`
	IsError bool    `json:"is_error"`
	ChatID  *int64  `json:"chat_id,omitempty"`
	Type    DtoType `json:"type"`
}

// Validate checks that the DTO carries a known content type.
func (d *GptDto) Validate() error {
	switch d.Type {
	case DtoTypeText, DtoTypeImage, DtoTypeAudio:
		return nil
	default:
		return fmt.Errorf("unknown dto type %q", d.Type)
	}
}

// EncodeGptDto serializes the DTO to its JSON wire form. An empty Type
// defaults to text before encoding.
func EncodeGptDto(d GptDto) ([]byte, error) {
	if d.Type == "" {
		d.Type = DtoTypeText
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gpt dto: %w", err)
	}
	return b, nil
}

// DecodeGptDto parses the JSON wire form of a DTO and validates it.
func DecodeGptDto(b []byte) (GptDto, error) {
	var d GptDto
	if err := json.Unmarshal(b, &d); err != nil {
		return GptDto{}, fmt.Errorf("failed to decode gpt dto: %w", err)
	}
	if d.Type == "" {
		d.Type = DtoTypeText
	}
	if err := d.Validate(); err != nil {
		return GptDto{}, err
	}
	return d, nil
}

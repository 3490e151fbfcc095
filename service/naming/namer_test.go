package naming

import (
	"fmt"
	"strings"
	"testing"

	"emmie-backend/model"
	"emmie-backend/service/chain"

	"github.com/stretchr/testify/assert"
)

func TestEligible(t *testing.T) {
	existing := "Quarterly report help"

	tests := []struct {
		name  string
		title *string
		count int64
		want  bool
	}{
		{"no messages yet", nil, 0, false},
		{"only the user message", nil, 1, false},
		{"first exchange complete", nil, 2, true},
		{"longer untitled chat", nil, 7, true},
		{"already titled", &existing, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(tt.title, tt.count))
		})
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "VPN setup help", "VPN setup help"},
		{"quoted", `"VPN setup help"`, "VPN setup help"},
		{"trailing period", "VPN setup help.", "VPN setup help"},
		{"multiline keeps first line", "VPN setup help\nSecond line", "VPN setup help"},
		{"clamped to word limit", "one two three four five six seven eight", "one two three four five six"},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.raw))
		})
	}
}

func TestCondenseTranscript(t *testing.T) {
	var sequence []*chain.ChainMessage
	sequence = append(sequence, &chain.ChainMessage{
		Role:      model.RoleUser,
		ContentMD: "how do I reset my VPN token?",
	})
	sequence = append(sequence, &chain.ChainMessage{
		Role:      model.RoleAssistant,
		ContentMD: strings.Repeat("x", 500),
	})

	transcript := CondenseTranscript(sequence)
	lines := strings.Split(transcript, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "user: how do I reset my VPN token?", lines[0])
	// 超长消息被截断
	assert.Len(t, lines[1], len("assistant: ")+300)

	assert.Empty(t, CondenseTranscript(nil))
}

func TestCondenseTranscriptKeepsLatestMessages(t *testing.T) {
	var sequence []*chain.ChainMessage
	for i := 0; i < 10; i++ {
		sequence = append(sequence, &chain.ChainMessage{
			Role:      model.RoleUser,
			ContentMD: fmt.Sprintf("message %d", i),
		})
	}

	transcript := CondenseTranscript(sequence)
	lines := strings.Split(transcript, "\n")
	assert.Len(t, lines, 6)
	// 窗口取链上最近的消息，最早的被丢弃
	assert.Equal(t, "user: message 4", lines[0])
	assert.Equal(t, "user: message 9", lines[5])
}

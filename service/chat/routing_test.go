package chat

import (
	"strings"
	"testing"

	"emmie-backend/config"
	"emmie-backend/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestTiers(t *testing.T) {
	t.Helper()
	prev := config.Cfg.Model
	config.Cfg.Model.TierFast = "model-fast"
	config.Cfg.Model.TierMax = "model-max"
	config.Cfg.Model.TierMultimodal = "model-multimodal"
	t.Cleanup(func() {
		config.Cfg.Model = prev
	})
}

func TestSelectBackend(t *testing.T) {
	t.Run("emmie mode without assistant id", func(t *testing.T) {
		backend, err := SelectBackend(&model.Agent{
			AgentMode: model.AgentModeEmmie,
		})
		require.NoError(t, err)
		assert.Equal(t, BackendEmmie, backend)
	})

	t.Run("assistant mode with valid id", func(t *testing.T) {
		backend, err := SelectBackend(&model.Agent{
			AgentMode:         model.AgentModeOpenAIAssistant,
			OpenAIAssistantID: "asst_Abc12345xyz",
		})
		require.NoError(t, err)
		assert.Equal(t, BackendOpenAIAssistant, backend)
	})

	t.Run("assistant config wins over emmie mode", func(t *testing.T) {
		backend, err := SelectBackend(&model.Agent{
			AgentMode:         model.AgentModeEmmie,
			OpenAIAssistantID: "asst_Abc12345xyz",
		})
		require.NoError(t, err)
		assert.Equal(t, BackendOpenAIAssistant, backend)
	})

	t.Run("assistant mode without id is a configuration error", func(t *testing.T) {
		_, err := SelectBackend(&model.Agent{
			AgentMode: model.AgentModeOpenAIAssistant,
		})
		var confErr *model.ConfigurationError
		require.ErrorAs(t, err, &confErr)
		assert.Equal(t, "openai_assistant_id", confErr.Field)
	})

	t.Run("malformed assistant id is a configuration error", func(t *testing.T) {
		_, err := SelectBackend(&model.Agent{
			AgentMode:         model.AgentModeOpenAIAssistant,
			OpenAIAssistantID: "assistant-123",
		})
		var confErr *model.ConfigurationError
		require.ErrorAs(t, err, &confErr)
		assert.Equal(t, "openai_assistant_id", confErr.Field)
	})
}

func TestSelectEmmieTier(t *testing.T) {
	setTestTiers(t)

	tests := []struct {
		name            string
		query           string
		hasImages       bool
		overriddenModel string
		want            string
	}{
		{
			name:  "short text goes to fast tier",
			query: "hello there",
			want:  "model-fast",
		},
		{
			name:      "images go to multimodal tier",
			query:     "what is in this picture",
			hasImages: true,
			want:      "model-multimodal",
		},
		{
			name:  "long prompt goes to max tier",
			query: strings.Repeat("a", longPromptThreshold+1),
			want:  "model-max",
		},
		{
			name:  "code block goes to max tier",
			query: "fix this\n```\npanic(1)\n```",
			want:  "model-max",
		},
		{
			name:  "sql keyword goes to max tier",
			query: "optimize SELECT * from orders",
			want:  "model-max",
		},
		{
			name:            "explicit model overrides heuristics",
			query:           "hello",
			hasImages:       true,
			overriddenModel: "custom-model",
			want:            "custom-model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectEmmieTier(tt.query, tt.hasImages, tt.overriddenModel)
			assert.Equal(t, tt.want, got)
		})
	}
}

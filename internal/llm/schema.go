package llm

// ChatCompletionSchema returns a JSON-Schema (draft 2020-12 subset) for the
// part of a chat-completions response we rely on: a non-empty choices array
// whose first element carries a string message content.
func ChatCompletionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"choices": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"message": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"content": map[string]any{"type": "string"},
							},
							"required": []string{"content"},
						},
					},
					"required": []string{"message"},
				},
			},
		},
		"required": []string{"choices"},
	}
}

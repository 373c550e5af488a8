package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/common"
	"github.com/joseph-ayodele/medparams/internal/llm"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write(constants.TemplateFile, "{parameters_text}\n{combined_text}")
	write(constants.ParametersFile, "Výška;Body height;number\n")
	write("names.lst", "Novák\n")

	return &common.Config{
		LLM: common.LLMConfig{
			LocalModel:       "llama3",
			DefaultModel:     "gpt-4o",
			Timeout:          5 * time.Second,
			MaxContextTokens: 128000,
			Fallback:         common.FallbackNone,
		},
		Content:    common.ContentConfig{Dir: dir, NamesFile: filepath.Join(dir, "names.lst")},
		Anonymizer: common.AnonymizerConfig{Match: "fold"},
	}
}

func TestBuild_NoBackendStillBuilds(t *testing.T) {
	cfg := testConfig(t)
	p, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "", p.Dispatcher.Backend())
	assert.Equal(t, []string{"gpt-4o"}, p.Models.IDs())
	assert.Equal(t, []string{"Novák"}, p.Anonymizer.Names())

	resp := p.Processor.Run(context.Background(), Request{Texts: []string{"x"}})
	assert.False(t, resp.Success)
	assert.Equal(t, common.CodeConfiguration, resp.ErrorKind)
}

func TestBuild_RejectsBadFallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Fallback = "sometimes"
	_, err := Build(context.Background(), cfg, nil)
	assert.Equal(t, common.CodeConfiguration, common.KindOf(err))
}

func TestBuild_SelfHostedEndToEnd(t *testing.T) {
	var got llm.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Výška,180"}}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.LLM.LocalURL = srv.URL
	p, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)

	resp := p.Processor.Run(context.Background(), Request{Texts: []string{"Pan Novák měří 180 cm"}})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "Výška,180", resp.Text)
	assert.Equal(t, "llama3", resp.Model)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, constants.SystemInstruction, got.Messages[0].Content)
	assert.Equal(t, "1. Výška: Body height (number)\nPan [PERSON_1] měří 180 cm", got.Messages[1].Content)
}

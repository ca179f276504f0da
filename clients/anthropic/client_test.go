package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// newMessagesServer fakes POST /v1/messages, answering every call with reply
func newMessagesServer(t *testing.T, reply string, calls *atomic.Int32, lastPrompt *atomic.Value) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		lastPrompt.Store(gjson.GetBytes(body, "messages.0.content.0.text").String())

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_01",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-test",
			"content":       []map[string]any{{"type": "text", "text": reply}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestTransformer(serverURL string) *AnthropicTransformer {
	return NewAnthropicTransformer("sk-test", "claude-test", 1024,
		option.WithBaseURL(serverURL),
		option.WithMaxRetries(0),
	)
}

func TestAnthropicTransformer_StreamlitToNextJS(t *testing.T) {
	var calls atomic.Int32
	var lastPrompt atomic.Value
	reply := "```json\n{\"nextjsCode\": \"export default function Page() { return <h1>Hi</h1> }\"}\n```"
	server := newMessagesServer(t, reply, &calls, &lastPrompt)

	page, err := newTestTransformer(server.URL).StreamlitToNextJS(context.Background(), "st.title('Hi')")
	require.NoError(t, err)
	assert.Equal(t, "export default function Page() { return <h1>Hi</h1> }", page)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, lastPrompt.Load().(string), "st.title('Hi')")
}

func TestAnthropicTransformer_RequirementsToPackageJSON(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var calls atomic.Int32
		var lastPrompt atomic.Value
		reply := `{"packageJsonContent": "{\"name\":\"converted-app\",\"dependencies\":{\"next\":\"14.2.3\"}}"}`
		server := newMessagesServer(t, reply, &calls, &lastPrompt)

		packageJSON, err := newTestTransformer(server.URL).RequirementsToPackageJSON(context.Background(), "pandas\n")
		require.NoError(t, err)
		assert.Equal(t, "14.2.3", gjson.Get(packageJSON, "dependencies.next").String())
	})

	t.Run("error - package json is not json", func(t *testing.T) {
		var calls atomic.Int32
		var lastPrompt atomic.Value
		server := newMessagesServer(t, `{"packageJsonContent": "name: app"}`, &calls, &lastPrompt)

		_, err := newTestTransformer(server.URL).RequirementsToPackageJSON(context.Background(), "pandas\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid JSON")
	})
}

func TestAnthropicTransformer_StreamlitToReactFastAPI(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var calls atomic.Int32
		var lastPrompt atomic.Value
		reply := `Here you go: {"reactComponentCode": "App", "fastApiServerCode": "main", ` +
			`"reactPackageJson": "{}", "fastApiRequirementsTxt": "fastapi"}`
		server := newMessagesServer(t, reply, &calls, &lastPrompt)

		output, err := newTestTransformer(server.URL).StreamlitToReactFastAPI(context.Background(), "st.write(1)", "")
		require.NoError(t, err)
		assert.Equal(t, "App", output.ReactComponentCode)
		assert.Equal(t, "main", output.FastAPIServerCode)
		assert.Equal(t, "{}", output.ReactPackageJSON)
		assert.Equal(t, "fastapi", output.FastAPIRequirementsTxt)
	})

	t.Run("error - missing field", func(t *testing.T) {
		var calls atomic.Int32
		var lastPrompt atomic.Value
		server := newMessagesServer(t, `{"reactComponentCode": "App"}`, &calls, &lastPrompt)

		_, err := newTestTransformer(server.URL).StreamlitToReactFastAPI(context.Background(), "st.write(1)", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid StreamlitToReactFastAPI response")
	})
}

func TestAnthropicTransformer_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer server.Close()

	_, err := newTestTransformer(server.URL).StreamlitToNextJS(context.Background(), "st.title('Hi')")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call model for StreamlitToNextJS")
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expected      string
		expectedError string
	}{
		{name: "bare object", input: `{"a":1}`, expected: `{"a":1}`},
		{name: "fenced object", input: "```json\n{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "no object", input: "sorry", expectedError: "no JSON object"},
		{name: "broken object", input: `{"a":}`, expectedError: "not valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := extractJSONObject(tt.input)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

package anthropic

import (
	"context"

	"github.com/stretchr/testify/mock"

	"convbackend/clients"
)

// MockCodeTransformer is a mock implementation of clients.CodeTransformer
type MockCodeTransformer struct {
	mock.Mock
}

func (m *MockCodeTransformer) StreamlitToNextJS(ctx context.Context, streamlitCode string) (string, error) {
	args := m.Called(ctx, streamlitCode)
	return args.String(0), args.Error(1)
}

func (m *MockCodeTransformer) RequirementsToPackageJSON(ctx context.Context, requirements string) (string, error) {
	args := m.Called(ctx, requirements)
	return args.String(0), args.Error(1)
}

func (m *MockCodeTransformer) StreamlitToReactFastAPI(
	ctx context.Context,
	streamlitCode, requirements string,
) (*clients.ReactFastAPIOutput, error) {
	args := m.Called(ctx, streamlitCode, requirements)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.ReactFastAPIOutput), args.Error(1)
}

// NewMockCodeTransformer creates a new mock transformer for testing
func NewMockCodeTransformer() *MockCodeTransformer {
	return &MockCodeTransformer{}
}

// WithNextJSPage configures StreamlitToNextJS to return page for any input
func (m *MockCodeTransformer) WithNextJSPage(page string) *MockCodeTransformer {
	m.On("StreamlitToNextJS", mock.Anything, mock.Anything).Return(page, nil)
	return m
}

// WithPackageJSON configures RequirementsToPackageJSON to return packageJSON for any input
func (m *MockCodeTransformer) WithPackageJSON(packageJSON string) *MockCodeTransformer {
	m.On("RequirementsToPackageJSON", mock.Anything, mock.Anything).Return(packageJSON, nil)
	return m
}

// WithReactFastAPIOutput configures StreamlitToReactFastAPI to return output for any input
func (m *MockCodeTransformer) WithReactFastAPIOutput(output *clients.ReactFastAPIOutput) *MockCodeTransformer {
	m.On("StreamlitToReactFastAPI", mock.Anything, mock.Anything, mock.Anything).Return(output, nil)
	return m
}

// CreateTestReactFastAPIOutput creates a sample four-file output for testing
func CreateTestReactFastAPIOutput() *clients.ReactFastAPIOutput {
	return &clients.ReactFastAPIOutput{
		ReactComponentCode:     "export default function App() { return <h1>Hi</h1> }\n",
		FastAPIServerCode:      "from fastapi import FastAPI\napp = FastAPI()\n",
		ReactPackageJSON:       `{"name":"frontend","dependencies":{"react":"^18"}}`,
		FastAPIRequirementsTxt: "fastapi\nuvicorn\n",
	}
}

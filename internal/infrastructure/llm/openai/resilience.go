package openai

import (
	"errors"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
)

// classify treats go-openai API and request errors like any other HTTP
// gateway answer.
var classify = resilience.GatewayClassifier(httpStatus)

func httpStatus(err error) (int, bool) {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}

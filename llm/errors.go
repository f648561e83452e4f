package llm

import (
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/richinex/omnireport/model"
)

// asServiceError maps SDK errors onto GenerationServiceError so callers see
// one error type whatever the vendor.
func asServiceError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *model.GenerationServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &model.GenerationServiceError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &model.GenerationServiceError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    msg,
			Err:        err,
		}
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return &model.GenerationServiceError{
			StatusCode: anthropicErr.StatusCode,
			Message:    http.StatusText(anthropicErr.StatusCode),
			Err:        err,
		}
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return &model.GenerationServiceError{
			StatusCode: geminiErr.Code,
			Message:    geminiErr.Message,
			Err:        err,
		}
	}

	return &model.GenerationServiceError{Message: err.Error(), Err: err}
}

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelf/internal/domain"
	domainerrors "github.com/listenupapp/shelf/internal/errors"
	"github.com/listenupapp/shelf/internal/service"
)

// maxCaptureWait bounds how long a waiting capture request blocks.
const maxCaptureWait = 30 * time.Second

func (s *Server) registerCaptureRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "submitToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/capture",
		Summary:     "Submit recognition token",
		Description: "Feeds one recognized text block or barcode into the capture pipeline. " +
			"With wait=true the request blocks until the lookup settles; a failed store write is returned as an error.",
		Tags: []string{"Capture"},
	}, s.handleCapture)
}

// === DTOs ===

// CaptureRequest is one recognition event.
type CaptureRequest struct {
	Kind  string `json:"kind" enum:"text,barcode" doc:"What the recognizer saw"`
	Value string `json:"value" maxLength:"4096" doc:"Recognized text or barcode payload"`
	Wait  bool   `json:"wait,omitempty" doc:"Block until the lookup settles"`
}

// CaptureInput wraps the capture request for Huma.
type CaptureInput struct {
	UserID string `header:"X-User-ID" doc:"Calling user"`
	Body   CaptureRequest
}

// CaptureResponse is the answer to a submitted token.
type CaptureResponse struct {
	Result *service.Transition `json:"result,omitempty" doc:"Terminal transition, when waited for"`
	Key    *domain.LookupKey   `json:"key,omitempty" doc:"Lookup key the token reduced to"`
	Status string              `json:"status" doc:"accepted, no_candidate, duplicate, no_selection or closed"`
	State  string              `json:"state,omitempty" doc:"Pipeline state of the key when the response was written"`
}

// CaptureOutput wraps the capture response for Huma.
type CaptureOutput struct {
	Body CaptureResponse
}

// === Handlers ===

func (s *Server) handleCapture(ctx context.Context, input *CaptureInput) (*CaptureOutput, error) {
	sess, err := s.session(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if !s.captureLimiter.Allow(input.UserID) {
		return nil, domainerrors.RateLimited("too many captures, slow down")
	}

	sub := sess.SubmitRecognizedToken(domain.Token{
		Kind:  domain.TokenKind(input.Body.Kind),
		Value: input.Body.Value,
	})

	out := &CaptureOutput{Body: CaptureResponse{Status: string(sub.Status)}}
	if sub.Status != service.SubmitNoCandidate {
		key := sub.Key
		out.Body.Key = &key
	}

	if !input.Body.Wait || !sub.Accepted() {
		return out, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, maxCaptureWait)
	defer cancel()

	t, err := sub.Wait(waitCtx)
	switch {
	case err == nil:
		if t.Outcome == service.OutcomeFailed {
			return nil, t.Err
		}
		out.Body.Result = &t
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Info("capture still in flight after wait", "user_id", input.UserID, "key", sub.Key.String())
	default:
		return nil, err
	}
	out.Body.State = string(sub.State())
	return out, nil
}

package oracle

import (
	"context"
	"errors"
)

// stubClient replays canned responses in order.
type stubClient struct {
	responses []string
	err       error
	requests  []Request
}

func (s *stubClient) Complete(_ context.Context, req Request) (Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return Response{}, s.err
	}
	if len(s.responses) == 0 {
		return Response{}, errors.New("stub: out of responses")
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return Response{Text: next}, nil
}

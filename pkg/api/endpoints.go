package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/scholar-impact/pkg/journal"
	"github.com/hazyhaar/scholar-impact/pkg/kit"
	"github.com/hazyhaar/scholar-impact/pkg/page"
)

// Service bundles what the endpoints need. Both transports share it.
type Service struct {
	Store     *journal.Store
	Selectors page.Selectors
	Logger    *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// errBadRequest marks failures caused by the caller's input.
var errBadRequest = errors.New("bad request")

// Shared request/response types used by both HTTP and MCP transports.

type resolveReq struct {
	Label string
}

type resolveResponse struct {
	Label string              `json:"label"`
	Key   string              `json:"key"`
	Match journal.MatchResult `json:"match"`
}

type annotateReq struct {
	HTML string
}

type annotateResponse struct {
	HTML    string      `json:"html"`
	Report  page.Report `json:"report"`
	OffPage bool        `json:"off_page,omitempty"`
}

type tableResponse struct {
	Table journal.TableInfo `json:"table"`
}

// wrap applies the middleware shared by every endpoint.
func (s *Service) wrap(action string, ep kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.RequestID(), kit.Logging(s.logger(), action))(ep)
}

func (s *Service) resolveEndpoint() kit.Endpoint {
	return s.wrap("resolve", func(_ context.Context, request any) (any, error) {
		req := request.(*resolveReq)
		if strings.TrimSpace(req.Label) == "" {
			return nil, fmt.Errorf("%w: missing label", errBadRequest)
		}
		key, res := s.Store.Matcher().ResolveLabel(req.Label)
		return resolveResponse{Label: req.Label, Key: key, Match: res}, nil
	})
}

func (s *Service) annotateEndpoint() kit.Endpoint {
	return s.wrap("annotate", func(_ context.Context, request any) (any, error) {
		req := request.(*annotateReq)
		if strings.TrimSpace(req.HTML) == "" {
			return nil, fmt.Errorf("%w: empty document", errBadRequest)
		}
		p, err := page.ParseString(req.HTML, s.Selectors)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		// Off a profile page the only change is the removal of stray summary
		// blocks; the cleaned document is still returned.
		report, err := p.Run(s.Store.Matcher())
		offPage := errors.Is(err, page.ErrOffPage)
		if err != nil && !offPage {
			return nil, err
		}
		out, err := p.HTML()
		if err != nil {
			return nil, fmt.Errorf("render document: %w", err)
		}
		return annotateResponse{HTML: out, Report: report, OffPage: offPage}, nil
	})
}

func (s *Service) tableEndpoint() kit.Endpoint {
	return s.wrap("table", func(_ context.Context, _ any) (any, error) {
		return tableResponse{Table: s.Store.Info()}, nil
	})
}

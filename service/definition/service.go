package definition

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/rule"
)

// Service loads definitions with afs
type Service struct {
	fs        afs.Service
	baseURL   string
	fsOptions []storage.Option
}

// Option customises definition service
type Option func(s *Service)

// WithBaseURL resolves relative locations against baseURL
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

// WithFsOptions sets storage options, i.e. an *embed.FS for embed:// locations
func WithFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.fsOptions = options
	}
}

// New creates definition service
func New(opts ...Option) *Service {
	ret := &Service{fs: afs.New()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// URL returns location resolved against base URL, ".yaml" is assumed without extension
func (s *Service) URL(location string) string {
	if path.Ext(location) == "" {
		location += ".yaml"
	}
	if s.baseURL != "" && !strings.Contains(location, "://") && !path.IsAbs(location) {
		location = url.Join(s.baseURL, location)
	}
	return location
}

func (s *Service) download(ctx context.Context, location string) (string, []byte, error) {
	URL := s.URL(location)
	data, err := s.fs.DownloadWithURL(ctx, URL, s.fsOptions...)
	if err != nil {
		return URL, nil, fmt.Errorf("failed to load %v: %w", URL, err)
	}
	return URL, data, nil
}

// LoadMission loads mission definition
func (s *Service) LoadMission(ctx context.Context, location string) (*mission.Mission, error) {
	URL, data, err := s.download(ctx, location)
	if err != nil {
		return nil, err
	}
	aMission, err := DecodeMission(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", URL, err)
	}
	return aMission, nil
}

// LoadRules loads rule set definition
func (s *Service) LoadRules(ctx context.Context, location string) ([]*rule.Rule, error) {
	URL, data, err := s.download(ctx, location)
	if err != nil {
		return nil, err
	}
	rules, err := DecodeRules(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", URL, err)
	}
	return rules, nil
}

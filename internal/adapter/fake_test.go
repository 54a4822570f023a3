package adapter

import (
	"context"
	"sync"
)

// fakeGenerator records requests and returns canned results.
type fakeGenerator struct {
	mu         sync.Mutex
	text       string
	vision     string
	err        error
	textReqs   []TextRequest
	visionReqs []VisionRequest
	block      bool // wait for ctx.Done before returning
}

func (f *fakeGenerator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	f.mu.Lock()
	f.textReqs = append(f.textReqs, req)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func (f *fakeGenerator) GenerateFromImage(ctx context.Context, req VisionRequest) (string, error) {
	f.mu.Lock()
	f.visionReqs = append(f.visionReqs, req)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.vision, f.err
}

// memorySink stores images in memory.
type memorySink struct {
	mu          sync.Mutex
	data        []byte
	name        string
	contentType string
	err         error
}

func (s *memorySink) Put(_ context.Context, name string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.name = name
	s.data = data
	s.contentType = contentType
	return "https://cdn.example.com/" + name, nil
}

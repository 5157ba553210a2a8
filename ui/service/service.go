package service

import (
	uderia "github.com/rgeissen/uderia-sub002"
)

// Service provides front-end operations over a uderia client.
type Service struct {
	client *uderia.Client
}

// New creates a new Service with the given client.
func New(client *uderia.Client) *Service {
	return &Service{
		client: client,
	}
}

// Client returns the underlying client.
// This is useful for advanced operations not covered by the service.
func (s *Service) Client() *uderia.Client {
	return s.client
}

package server

import "google.golang.org/grpc"

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
	// ServiceName is the fully qualified name reported by the health service.
	ServiceName() string
}

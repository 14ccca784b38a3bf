package registry

// Service is the interface implemented by every long-running monitor service.
type Service interface {
	Start() error
	Stop() error
}

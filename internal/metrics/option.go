package metrics

// Config holds meter provider configuration.
type Config struct {
	ServiceName string
}

// OptionFn configures the meter provider.
type OptionFn func(config Config) Config

// WithServiceName attaches the service name resource attribute.
func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

// PromServerConfig holds the metrics HTTP server configuration.
type PromServerConfig struct {
	port string
}

// PromOptionFn configures the metrics HTTP server.
type PromOptionFn func(config PromServerConfig) PromServerConfig

// WithPort sets the port the /metrics endpoint listens on.
func WithPort(port string) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		config.port = port
		return config
	}
}

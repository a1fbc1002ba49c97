package config

const (
	defaultEndpoint = "http://localhost:8000"

	defaultListen     = ":8000"
	defaultTokenDelay = "50ms"

	defaultEventStreamProvider = EventStreamNop
	defaultEventStreamBroker   = "localhost:9092"
	defaultEventStreamTopic    = "ssechat.messages"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			Endpoint: defaultEndpoint,
		},
		Server: ServerConfig{
			Listen:     defaultListen,
			TokenDelay: defaultTokenDelay,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Brokers:  []string{defaultEventStreamBroker},
			Topic:    defaultEventStreamTopic,
		},
	}
}

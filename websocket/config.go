package websocket

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPayloadCap is the per-frame payload ceiling applied when Options
// leaves PayloadCap unset. Oversized frames are a denial-of-service vector,
// not a framing concern, so the cap always has some value.
const DefaultPayloadCap = 1 << 20

// Duration wraps time.Duration so YAML configs can use forms like "5s".
type Duration time.Duration

// UnmarshalYAML parses a scalar duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("websocket: duration must be a scalar, got %v", node.Kind)
	}
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("websocket: parse duration: %w", err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Options configures a Server. The zero value is usable: it binds an
// ephemeral port and applies the defaults below.
type Options struct {
	// Name identifies the server on the manifest endpoint.
	Name string `yaml:"name"`

	// Port is the TCP port to bind on 0.0.0.0. Zero picks an ephemeral port.
	Port int `yaml:"port"`

	// PayloadCap is the maximum declared payload length of one inbound
	// frame. Frames above it are rejected before their payload is read.
	PayloadCap uint64 `yaml:"payload_cap"`

	// MaxConns bounds concurrently open raw connections. Zero means
	// unbounded.
	MaxConns int `yaml:"max_conns"`

	// HandshakeTimeout arms a deadline on the raw socket for the duration
	// of the handshake. Zero disables it, letting a stalled peer hold its
	// handshake goroutine indefinitely.
	HandshakeTimeout Duration `yaml:"handshake_timeout"`

	// Logger receives server and connection events. Defaults to
	// slog.Default.
	Logger *slog.Logger `yaml:"-"`

	// Metrics, when set, counts connections, handshakes and messages.
	Metrics *Metrics `yaml:"-"`
}

func (o *Options) withDefaults() {
	if o.Name == "" {
		o.Name = "protov"
	}
	if o.PayloadCap == 0 {
		o.PayloadCap = DefaultPayloadCap
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// LoadOptions reads server options from a YAML file.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("websocket: read config: %w", err)
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("websocket: parse config: %w", err)
	}
	return opts, nil
}

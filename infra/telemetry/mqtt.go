package telemetry

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/packsim/packsim/core/pack"
	coretelemetry "github.com/packsim/packsim/core/telemetry"
	"github.com/packsim/packsim/infra/logger"
)

// MQTTConfig defines the connection parameters for the paho-based sink.
type MQTTConfig struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	Retain      bool        `json:"retain"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	TLSConfig   *tls.Config `json:"-"`
}

// NewClientOptions builds paho options from the config, including TLS.
func NewClientOptions(cfg MQTTConfig) (*paho.ClientOptions, error) {
	id := cfg.ClientID
	if id == "" {
		id = "packsim-" + uuid.NewString()
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(id)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c MQTTConfig) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// MQTTSink streams telemetry over MQTT for live observers. Step records go
// to <prefix>/<run_id>/step, run summaries to <prefix>/<run_id>/summary.
type MQTTSink struct {
	cli    paho.Client
	prefix string
	qos    byte
	retain bool
	log    logger.Logger
}

// NewMQTTSink connects to the broker and returns the sink.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt-sink")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = "packsim"
	}
	return &MQTTSink{cli: cli, prefix: prefix, qos: cfg.QoS, retain: cfg.Retain, log: log}, nil
}

// RecordStep publishes one record as JSON.
func (s *MQTTSink) RecordStep(meta coretelemetry.RunMeta, rec pack.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/%s/step", s.prefix, meta.RunID)
	token := s.cli.Publish(topic, s.qos, s.retain, payload)
	token.Wait()
	return token.Error()
}

// RecordRunSummary publishes the run summary, retained so late subscribers
// still see the final state.
func (s *MQTTSink) RecordRunSummary(sum coretelemetry.RunSummary) error {
	payload, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/%s/summary", s.prefix, sum.Meta.RunID)
	token := s.cli.Publish(topic, s.qos, true, payload)
	token.Wait()
	return token.Error()
}

func (s *MQTTSink) Flush() error { return nil }

// Close disconnects from the broker after a short quiesce.
func (s *MQTTSink) Close() error {
	if s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
	return nil
}

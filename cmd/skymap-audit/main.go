// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Command skymap-audit fans audit events out to Kafka and Splunk HEC,
// sending each event to every configured sink in turn. It is not
// connected to an authstore mutation feed: on startup it sends a single
// synthetic "audit-start" event through the fan-out path and exits.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	aglog "github.com/aristanetworks/glog"
	hec "github.com/aristanetworks/splunk-hec-go"
	multierror "github.com/hashicorp/go-multierror"

	skymapglog "github.com/skymapdb/skymap/glog"
	"github.com/skymapdb/skymap/internal/logger"
)

// Event is one audited authstore mutation.
type Event struct {
	Timestamp time.Time
	Kind      string // "audit-start", "claim-root", "claim-user", "login", "regenerate", "delete-user", "logout"
	Account   string
	OK        bool
	Detail    string
}

// Sink delivers an Event to an external system.
type Sink interface {
	Send(Event) error
	Close() error
}

// kafkaSink forwards events as Kafka messages via an async producer.
type kafkaSink struct {
	producer sarama.AsyncProducer
	topic    string
}

func newKafkaSink(brokers []string, topic string) (*kafkaSink, error) {
	cfg := sarama.NewConfig()
	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}
	cfg.ClientID = hostname
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	s := &kafkaSink{producer: producer, topic: topic}
	go func() {
		for err := range producer.Errors() {
			fmt.Fprintf(os.Stderr, "skymap-audit: kafka send failed: %s\n", err)
		}
	}()
	return s, nil
}

func (s *kafkaSink) Send(e Event) error {
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(e.Account),
		Value: sarama.StringEncoder(fmt.Sprintf("%s\t%s\t%s\t%t\t%s",
			e.Timestamp.Format(time.RFC3339Nano), e.Kind, e.Account, e.OK, e.Detail)),
	}
	select {
	case s.producer.Input() <- msg:
		return nil
	default:
		return fmt.Errorf("skymap-audit: kafka producer input is full")
	}
}

func (s *kafkaSink) Close() error {
	return s.producer.Close()
}

// splunkSink forwards events as Splunk HEC events.
type splunkSink struct {
	cluster hec.Cluster
	index   string
	source  string
}

func newSplunkSink(urls []string, token, index string, insecure bool) *splunkSink {
	cluster := hec.NewCluster(urls, token)
	cluster.SetHTTPClient(&http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
		},
	})
	return &splunkSink{cluster: cluster, index: index, source: "skymap-audit"}
}

func (s *splunkSink) Send(e Event) error {
	sourceType := "skymap:auth"
	event := &hec.Event{
		Index:      &s.index,
		Source:     &s.source,
		SourceType: &sourceType,
		Event: map[string]interface{}{
			"kind":    e.Kind,
			"account": e.Account,
			"ok":      e.OK,
			"detail":  e.Detail,
		},
	}
	event.SetTime(e.Timestamp)
	return s.cluster.WriteEvent(event)
}

func (s *splunkSink) Close() error {
	return nil
}

// fanout delivers an Event to every sink, aggregating whatever errors
// come back instead of stopping at the first failing sink — a Splunk
// outage shouldn't silence the Kafka copy of the audit trail.
type fanout struct {
	sinks []Sink
	log   logger.Logger
}

func (f *fanout) Send(e Event) error {
	var result error
	for _, s := range f.sinks {
		if err := s.Send(e); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result != nil && f.log != nil {
		f.log.Warnf("skymap-audit: one or more sinks failed: %s", result)
	}
	return result
}

func (f *fanout) Close() error {
	var result error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

func main() {
	kafkaBrokers := flag.String("kafka-brokers", "", "Comma-separated list of Kafka broker addresses")
	kafkaTopic := flag.String("kafka-topic", "skymap-audit", "Kafka topic to publish audit events to")
	splunkURLs := flag.String("splunk-urls", "", "Comma-separated list of Splunk HEC URLs")
	splunkToken := flag.String("splunk-token", "", "Splunk HEC token")
	splunkIndex := flag.String("splunk-index", "main", "Splunk index for audit events")
	splunkInsecure := flag.Bool("splunk-insecure-tls", false, "Skip TLS verification when talking to Splunk")
	verbosity := flag.Int("v", 0, "glog verbosity threshold for Info-level audit tracing")
	flag.Parse()

	g := &skymapglog.Glog{InfoLevel: aglog.Level(*verbosity)}

	var sinks []Sink
	if *kafkaBrokers != "" {
		ks, err := newKafkaSink(strings.Split(*kafkaBrokers, ","), *kafkaTopic)
		if err != nil {
			g.Fatalf("skymap-audit: failed to start kafka sink: %s", err)
		}
		sinks = append(sinks, ks)
	}
	if *splunkURLs != "" {
		sinks = append(sinks, newSplunkSink(strings.Split(*splunkURLs, ","), *splunkToken, *splunkIndex, *splunkInsecure))
	}
	if len(sinks) == 0 {
		g.Fatal("skymap-audit: configure at least one of -kafka-brokers or -splunk-urls")
	}

	fo := &fanout{sinks: sinks, log: g}
	defer fo.Close()

	g.Infof("skymap-audit: forwarding events to %d sink(s)", len(sinks))

	// In production this would subscribe to a live feed of authstore
	// mutations; here it demonstrates the fan-out path with a single
	// synthetic startup event.
	startup := Event{Timestamp: time.Now(), Kind: "audit-start", OK: true, Detail: "skymap-audit online"}
	if err := fo.Send(startup); err != nil {
		g.Errorf("skymap-audit: %s", err)
	}
}

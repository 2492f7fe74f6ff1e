package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/niksmo/catalog/config"
	"github.com/niksmo/catalog/internal/adapter"
	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const cleanupPolicy = "delete"

func main() {
	sigCtx, closeApp := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer closeApp()

	pflag.CommandLine.ParseErrorsWhitelist.UnknownFlags = true
	partitions := pflag.Int32P("partitions", "p", 3, "topic partitions")
	replicationFactor := pflag.Int16P("replication-factor", "r", 3, "topic replication factor")
	minISR := pflag.String("min-insync-replicas", "1", "min.insync.replicas")
	_ = pflag.String("config", "", "config file")
	pflag.Parse()

	cfg := config.Load()
	if !cfg.Broker.Enabled() {
		printFail(errors.New("no seed brokers configured"))
		os.Exit(2)
	}

	cl, err := createClient(cfg)
	if err != nil {
		printFail(err)
		os.Exit(2)
	}
	defer cl.Close()

	printStart(cfg)
	defer printComplete(time.Now())

	policy := cleanupPolicy
	topicConfig := map[string]*string{
		"cleanup.policy":      &policy,
		"min.insync.replicas": minISR,
	}
	err = makeTopics(
		sigCtx, cl, *partitions, *replicationFactor, topicConfig,
		cfg.Broker.ProductEventsTopic,
	)
	if err != nil {
		printFail(err)
		return
	}
}

func createClient(cfg config.Config) (*kadm.Client, error) {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Broker.SeedBrokers...)}

	tls := cfg.Broker.TLS
	if tls.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(tls.CA, tls.Cert, tls.Key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}
	return kadm.NewOptClient(opts...)
}

func makeTopics(
	ctx context.Context,
	cl *kadm.Client,
	partitions int32,
	replicationFactor int16,
	config map[string]*string,
	topics ...string,
) error {
	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		config,
		topics...,
	)
	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(cfg config.Config) {
	fmt.Printf(`initializing topics...
	- %q

`,
		cfg.Broker.ProductEventsTopic,
	)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

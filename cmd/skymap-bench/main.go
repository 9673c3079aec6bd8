// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Command skymap-bench drives a fixed-size worker pool of concurrent
// readers and writers against an in-process kvstore.Store, to exercise
// and observe the bucket-level/table-level locking under real
// contention rather than just in a unit test.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/skymapdb/skymap/glog"
	"github.com/skymapdb/skymap/kvstore"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (see Config in config.go)")
	workers := flag.Int("workers", 0, "Override Config.Workers (0 means use config/default)")
	duration := flag.Duration("duration", 10*time.Second, "How long to run the benchmark")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skymap-bench: failed to load config: %s\n", err)
		os.Exit(1)
	}
	if *workers != 0 {
		cfg.Workers = *workers
	}

	g := &glog.Glog{}
	store := kvstore.New(kvstore.WithLogger(g))

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var gets, sets, errs atomic.Int64
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		i := i
		eg.Go(func() error {
			return runWorker(ctx, i, cfg, store, &gets, &sets, &errs)
		})
	}
	if err := eg.Wait(); err != nil && err != context.DeadlineExceeded && err != context.Canceled {
		g.Errorf("skymap-bench: worker error: %s", err)
	}

	g.Infof("skymap-bench: %d get(s), %d set(s), %d error(s), final len=%d, bucket_count=%d",
		gets.Load(), sets.Load(), errs.Load(), store.Len(), store.BucketCount())
}

// runWorker issues a mix of Get/Set operations against store until ctx
// is done, retrying a failed Set (a rehash allocation failure) with
// exponential backoff rather than treating it as fatal — a single
// worker stalling briefly shouldn't tear down the whole run.
func runWorker(ctx context.Context, id int, cfg Config, store *kvstore.Store,
	gets, sets, errs *atomic.Int64) error {

	rng := rand.New(rand.NewSource(int64(id) + 1))
	var limiter *rate.Limiter
	if cfg.RatePerWorker > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerWorker), 1)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		key := "bench-key-" + strconv.Itoa(rng.Intn(cfg.KeyspaceSize))
		if rng.Float64() < cfg.WriteFraction {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = time.Second
			err := backoff.Retry(func() error {
				value := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
				err := store.Update(key, value)
				if err == kvstore.ErrNotFound {
					err = store.Set(key, value)
					if err == kvstore.ErrOverwrite {
						return nil
					}
				}
				return err
			}, bo)
			if err != nil {
				errs.Add(1)
			} else {
				sets.Add(1)
			}
		} else {
			_, err := store.Get(key)
			if err != nil && err != kvstore.ErrNotFound {
				errs.Add(1)
			} else {
				gets.Add(1)
			}
		}
	}
}

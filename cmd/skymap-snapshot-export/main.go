// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Command skymap-snapshot-export drains a kvstore snapshot into Redis.
// It exists to demonstrate that durability for a skymap-backed keyspace
// is an external collaborator's job, not the core container's: the
// container itself never touches disk or a network socket.
package main

import (
	"flag"
	"fmt"
	"os"

	redis "gopkg.in/redis.v4"

	"github.com/skymapdb/skymap/glog"
	"github.com/skymapdb/skymap/kvstore"
)

func main() {
	redisAddr := flag.String("redis-addr", "localhost:6379", "Address of the Redis server to export into")
	redisPassword := flag.String("redis-password", "", "Redis AUTH password, if required")
	redisDB := flag.Int64("redis-db", 0, "Redis logical database index")
	redisKeyPrefix := flag.String("redis-key-prefix", "skymap:", "Prefix prepended to every exported key")
	flag.Parse()

	g := &glog.Glog{}

	client := redis.NewClient(&redis.Options{
		Addr:     *redisAddr,
		Password: *redisPassword,
		DB:       *redisDB,
	})
	defer client.Close()

	if _, err := client.Ping().Result(); err != nil {
		g.Fatalf("skymap-snapshot-export: failed to reach Redis at %s: %s", *redisAddr, err)
	}

	// TODO: attach to a running server's kvstore.Store over its debug
	// endpoint instead of constructing a fresh, empty one in-process.
	store := kvstore.New()
	entries := store.List()
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "skymap-snapshot-export: nothing to export (empty store)")
		return
	}

	var exported, failed int
	for _, e := range entries {
		key := *redisKeyPrefix + e.Key
		if err := client.Set(key, e.Value, 0).Err(); err != nil {
			g.Errorf("skymap-snapshot-export: failed to export %q: %s", e.Key, err)
			failed++
			continue
		}
		exported++
	}
	g.Infof("skymap-snapshot-export: exported %d key(s), %d failure(s)", exported, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

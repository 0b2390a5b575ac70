/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kv

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const embeddedReadyTimeout = 10 * time.Second

// EmbeddedServer is an in-process NATS server with file-backed JetStream.
// It accepts no network connections; clients attach through InProcessServer.
type EmbeddedServer struct {
	srv *server.Server
}

// StartEmbeddedServer starts a server that keeps its JetStream data under storeDir.
func StartEmbeddedServer(storeDir string) (*EmbeddedServer, error) {
	if storeDir == "" {
		return nil, errStoreDirRequired
	}

	if err := os.MkdirAll(storeDir, 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	srv, err := server.NewServer(&server.Options{
		ServerName: "adbmosaic",
		DontListen: true,
		JetStream:  true,
		StoreDir:   storeDir,
		NoLog:      true,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded nats server: %w", err)
	}

	go srv.Start()

	if !srv.ReadyForConnections(embeddedReadyTimeout) || !waitJetStream(srv, embeddedReadyTimeout) {
		srv.Shutdown()

		return nil, errServerNotReady
	}

	return &EmbeddedServer{srv: srv}, nil
}

func waitJetStream(srv *server.Server, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for !srv.JetStreamEnabled() {
		if time.Now().After(deadline) {
			return false
		}

		time.Sleep(20 * time.Millisecond)
	}

	return true
}

// ClientURL returns the server's nominal client URL.
func (e *EmbeddedServer) ClientURL() string {
	return e.srv.ClientURL()
}

// ConnectOption routes a nats connection to this server in-process.
func (e *EmbeddedServer) ConnectOption() nats.Option {
	return nats.InProcessServer(e.srv)
}

// Close shuts the server down and waits for JetStream to flush.
func (e *EmbeddedServer) Close() error {
	e.srv.Shutdown()
	e.srv.WaitForShutdown()

	return nil
}

// NewLocalNatsStore opens bucket on an embedded server persisting to storeDir.
// Closing the store also stops the server.
func NewLocalNatsStore(ctx context.Context, storeDir, bucket string, ttl time.Duration) (*NatsStore, error) {
	embedded, err := StartEmbeddedServer(storeDir)
	if err != nil {
		return nil, err
	}

	store, err := NewNatsStore(ctx, embedded.ClientURL(), bucket, ttl, embedded.ConnectOption())
	if err != nil {
		_ = embedded.Close()

		return nil, err
	}

	store.embedded = embedded

	return store, nil
}

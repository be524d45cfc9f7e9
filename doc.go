// Package kvclient is a client for key-value servers speaking the tagged
// binary wire protocol of package wire.
//
// A Connection is one socket with pipelining: requests are written back to
// back and responses are read in order. Dialer opens connections and retries
// while the server is not listening yet.
//
// A Client spreads keys over several servers with jump hashing, keeps a pool
// of connections per server and can wrap each server in a circuit breaker.
// Typed commands are available on Commands and multi-key operations on
// BatchCommands; both work over a Client or a single Connection.
//
//	client, err := kvclient.NewClient(kvclient.NewStaticServers("127.0.0.1:7000"), kvclient.Config{})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.Set(ctx, "greeting", wire.String("hello"))
//	v, err := client.Get(ctx, "greeting")
package kvclient

// Package sonic is a client for the Sonic search backend.
//
// A channel is one TCP connection opened in one of three modes. Each mode
// exposes its own commands:
//
//   - SearchChannel: Query, Suggest, List
//   - IngestChannel: Push, Pop, Count, FlushCollection, FlushBucket, FlushObject
//   - ControlChannel: Trigger, Consolidate, Backup, Restore, Info
//
// All channels also offer Ping, Help, Quit and Close.
//
// # Usage
//
//	ch, err := sonic.StartSearch(ctx, sonic.Config{Addr: "localhost:1491", Password: "SecretPassword"})
//	if err != nil {
//	    return err
//	}
//	defer ch.Quit(ctx)
//
//	objects, err := ch.Query(ctx, "messages", "user:1", "pizza")
//
// # Blocking
//
// Every call blocks until its exchange completes, including the wait for
// the asynchronous EVENT that carries QUERY, SUGGEST and LIST results. A
// channel runs one command at a time; concurrent callers are serialized.
// The deadline of the context is applied to the socket, and its expiry is
// reported as a proto.ConnectionError.
//
// # Errors
//
// Errors are the types of package proto. proto.KindOf classifies them and
// proto.ShouldCloseConnection tells whether the channel is still usable.
// After a connection or protocol error the channel is failed and every
// further call returns a proto.ConnectionError.
package sonic

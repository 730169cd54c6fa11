package sonic

import (
	"context"

	"github.com/pior/sonic/proto"
)

// ControlChannel administers the server.
type ControlChannel struct {
	*channel
}

// StartControl connects to config.Addr and opens a control session.
func StartControl(ctx context.Context, config Config) (*ControlChannel, error) {
	ch, err := start(ctx, ModeControl, config)
	if err != nil {
		return nil, err
	}
	return &ControlChannel{channel: ch}, nil
}

// Trigger runs a server action with optional data.
// An empty action sends a bare TRIGGER.
func (c *ControlChannel) Trigger(ctx context.Context, action, data string) error {
	_, err := c.run(ctx, &command{kind: cmdTrigger, action: action, data: data})
	return err
}

// Consolidate flushes pending index writes to disk.
func (c *ControlChannel) Consolidate(ctx context.Context) error {
	return c.Trigger(ctx, proto.ActionConsolidate, "")
}

// Backup writes a database backup to path, on the server's filesystem.
func (c *ControlChannel) Backup(ctx context.Context, path string) error {
	if path == "" {
		return &proto.EncodingError{Message: "backup path is empty"}
	}
	return c.Trigger(ctx, proto.ActionBackup, path)
}

// Restore loads a backup from path, on the server's filesystem.
func (c *ControlChannel) Restore(ctx context.Context, path string) error {
	if path == "" {
		return &proto.EncodingError{Message: "restore path is empty"}
	}
	return c.Trigger(ctx, proto.ActionRestore, path)
}

// Info returns server statistics such as uptime and clients_connected.
func (c *ControlChannel) Info(ctx context.Context) (map[string]string, error) {
	resp, err := c.run(ctx, &command{kind: cmdInfo})
	return resp.info, err
}

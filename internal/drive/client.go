package drive

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
)

// #region client-struct
// Client forwards wheel commands to a remote Drive service.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to a Drive service at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn creates a Client over an existing connection. The caller keeps
// ownership of cc.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down a connection opened by NewClient.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region rpc
// DriveDirect sets both wheel speeds remotely.
func (c *Client) DriveDirect(ctx context.Context, left, right int16) error {
	req, err := wheelRequest(left, right)
	if err != nil {
		return err
	}
	if err := c.cc.Invoke(ctx, methodDriveDirect, req, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("drive direct rpc: %w", err)
	}
	return nil
}

// Stop zeroes both wheels remotely.
func (c *Client) Stop(ctx context.Context) error {
	if err := c.cc.Invoke(ctx, methodStop, &emptypb.Empty{}, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("stop rpc: %w", err)
	}
	return nil
}

// #endregion rpc

var _ Actuator = (*Client)(nil)

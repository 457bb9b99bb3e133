package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"migrationmcp/internal/config"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultTimeout bounds every remote call, handshake included.
const DefaultTimeout = 90 * time.Second

// Caller runs a tool and returns its raw result.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
	Close() error
}

// EndpointFromConfig returns the streamable-http URL of a server started with cfg.
func EndpointFromConfig(cfg config.ServerConfig) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	path := cfg.EndpointPath
	if path == "" {
		path = "/mcp"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Port)) + path
}

// Client is an MCP client for a running migrationmcp server.
type Client struct {
	endpoint string
	token    string
	timeout  time.Duration
	client   client.MCPClient
}

// NewClient returns a client for endpoint. token is sent as a bearer token
// when not empty.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		timeout:  DefaultTimeout,
	}
}

// Connect establishes the connection and performs the MCP handshake.
func (c *Client) Connect(ctx context.Context) error {
	var opts []transport.StreamableHTTPCOption
	if c.token != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{
			"Authorization": "Bearer " + c.token,
		}))
	}

	httpClient, err := client.NewStreamableHttpClient(c.endpoint, opts...)
	if err != nil {
		return fmt.Errorf("failed to create streamable-http client: %w", err)
	}
	if err := httpClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start streamable-http client: %w", err)
	}
	c.client = httpClient

	if err := c.initialize(ctx); err != nil {
		c.Close()
		return fmt.Errorf("initialization failed: %w", err)
	}
	return nil
}

// CallTool executes a tool and returns the result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}
	return result, nil
}

// Close closes the connection. It is safe to call on an unconnected client.
func (c *Client) Close() error {
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

func (c *Client) initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "migrationmcp-cli",
		Version: "1.0.0",
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.Initialize(ctx, req)
	return err
}

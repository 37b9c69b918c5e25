// Package client talks to a signing device over its HTTP transport. It
// encodes requests, decodes replies and drives the streaming bitcoin
// signing protocol on behalf of a host application.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/hww-signer-go/pkg/codec"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

const (
	apiPath        = "/api"
	contentType    = "application/cbor"
	defaultTimeout = 2 * time.Minute
)

// ClientConfig holds the configuration for the device client
type ClientConfig struct {
	DeviceURL string
	Logger    *zap.Logger
	// HTTPClient defaults to a client with a timeout long enough for
	// on-device confirmations.
	HTTPClient *http.Client
	// Retry defaults to DefaultRetryConfig.
	Retry *RetryConfig
}

// Client is a host-side connection to one device.
type Client struct {
	endpoint   string
	codec      *codec.CBOR
	httpClient *http.Client
	retry      RetryConfig
	logger     *zap.Logger
}

// DeviceError is an error response returned by the device.
type DeviceError struct {
	Code    int32
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error %d: %s", e.Code, e.Message)
}

// NewClient creates a new device client
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if config.DeviceURL == "" {
		return nil, errors.New("device URL is required")
	}
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	retry := DefaultRetryConfig
	if config.Retry != nil {
		retry = *config.Retry
	}
	c, err := codec.NewCBOR()
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint:   strings.TrimRight(config.DeviceURL, "/") + apiPath,
		codec:      c,
		httpClient: httpClient,
		retry:      retry,
		logger:     config.Logger,
	}, nil
}

// Query sends one request and returns the device's reply. An error
// response is returned as *DeviceError.
func (c *Client) Query(ctx context.Context, req *types.Request) (*types.Response, error) {
	body, err := c.codec.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	data, err := c.send(ctx, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.codec.DecodeResponse(data)
	if err != nil {
		return nil, err
	}
	if resp.Variants() != 1 {
		return nil, errors.Errorf("malformed response with %d variants", resp.Variants())
	}
	if resp.Error != nil {
		return nil, &DeviceError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	return resp, nil
}

// DeviceInfo returns the device's name, version and capabilities.
func (c *Client) DeviceInfo(ctx context.Context) (*types.DeviceInfoResponse, error) {
	resp, err := c.Query(ctx, &types.Request{DeviceInfo: &types.DeviceInfoRequest{}})
	if err != nil {
		return nil, err
	}
	if resp.DeviceInfo == nil {
		return nil, unexpected("device info", resp)
	}
	return resp.DeviceInfo, nil
}

// BtcPub returns an xpub or address.
func (c *Client) BtcPub(ctx context.Context, req *types.BtcPubRequest) (string, error) {
	resp, err := c.Query(ctx, &types.Request{BtcPub: req})
	if err != nil {
		return "", err
	}
	if resp.Pub == nil {
		return "", unexpected("btc pub", resp)
	}
	return resp.Pub.Pub, nil
}

// EthPub returns an xpub or checksummed address.
func (c *Client) EthPub(ctx context.Context, req *types.EthPubRequest) (string, error) {
	resp, err := c.Query(ctx, &types.Request{EthPub: req})
	if err != nil {
		return "", err
	}
	if resp.Pub == nil {
		return "", unexpected("eth pub", resp)
	}
	return resp.Pub.Pub, nil
}

// EthSign returns the 65-byte signature r || s || recid.
func (c *Client) EthSign(ctx context.Context, req *types.EthSignRequest) ([]byte, error) {
	resp, err := c.Query(ctx, &types.Request{EthSign: req})
	if err != nil {
		return nil, err
	}
	if resp.EthSign == nil {
		return nil, unexpected("eth sign", resp)
	}
	if len(resp.EthSign.Signature) != 65 {
		return nil, errors.Errorf("device returned a %d-byte signature", len(resp.EthSign.Signature))
	}
	return resp.EthSign.Signature, nil
}

func (c *Client) ListBackups(ctx context.Context) ([]types.BackupInfo, error) {
	resp, err := c.Query(ctx, &types.Request{ListBackups: &types.ListBackupsRequest{}})
	if err != nil {
		return nil, err
	}
	if resp.ListBackups == nil {
		return nil, unexpected("list backups", resp)
	}
	return resp.ListBackups.Backups, nil
}

func (c *Client) CreateBackup(ctx context.Context, name string, timestamp time.Time) error {
	resp, err := c.Query(ctx, &types.Request{CreateBackup: &types.CreateBackupRequest{
		Name:      name,
		Timestamp: uint32(timestamp.Unix()),
	}})
	if err != nil {
		return err
	}
	if resp.Success == nil {
		return unexpected("create backup", resp)
	}
	return nil
}

func (c *Client) RestoreBackup(ctx context.Context, id string) error {
	resp, err := c.Query(ctx, &types.Request{RestoreBackup: &types.RestoreBackupRequest{ID: id}})
	if err != nil {
		return err
	}
	if resp.Success == nil {
		return unexpected("restore backup", resp)
	}
	return nil
}

func unexpected(op string, resp *types.Response) error {
	return errors.Errorf("unexpected response to %s: %+v", op, *resp)
}

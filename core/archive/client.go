package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNoLogfile is returned when a unit directory contains no vehicle logfile.
// Callers treat this as a recoverable per-unit condition.
var ErrNoLogfile = errors.New("no vehicle logfile in unit directory")

// Client defines the interface for reading game server log units from the archive.
type Client interface {
	// ListUnitDirs lists the top-level unit directories of the archive bucket.
	// Names are returned without the trailing slash.
	ListUnitDirs(ctx context.Context) ([]string, error)
	// FetchLogfile downloads the vehicle logfile of one unit directory and
	// returns its raw lines. The source is \r\n-terminated.
	FetchLogfile(ctx context.Context, unitKey string) ([]string, error)
}

// NewClient creates a new archive client backed by Minio based on the configuration.
func NewClient(cfg Config) (Client, error) {
	// Minio expects endpoint without scheme
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	// Custom transport with strict timeouts so a dead archive endpoint cannot
	// stall a sync run indefinitely.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioArchive{
		client:        minioClient,
		bucket:        cfg.Bucket,
		logfilePrefix: cfg.LogfilePrefix,
	}, nil
}

type minioArchive struct {
	client        *minio.Client
	bucket        string
	logfilePrefix string
}

// ListUnitDirs lists the common prefixes at the bucket root. The game server
// creates one directory per restart, named by a Unix timestamp.
func (a *minioArchive) ListUnitDirs(ctx context.Context) ([]string, error) {
	var dirs []string

	objectCh := a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Recursive: false,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list unit directories: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			dirs = append(dirs, strings.TrimSuffix(object.Key, "/"))
		}
	}

	return dirs, nil
}

// FetchLogfile locates the single logfile matching the configured prefix
// inside the unit directory, downloads it and splits it into lines.
func (a *minioArchive) FetchLogfile(ctx context.Context, unitKey string) ([]string, error) {
	var logfileKey string

	objectCh := a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    unitKey + "/",
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list unit %s: %w", unitKey, object.Err)
		}
		name := strings.TrimPrefix(object.Key, unitKey+"/")
		if strings.Contains(name, a.logfilePrefix) {
			logfileKey = object.Key
			break
		}
	}

	if logfileKey == "" {
		return nil, fmt.Errorf("unit %s: %w", unitKey, ErrNoLogfile)
	}

	obj, err := a.client.GetObject(ctx, a.bucket, logfileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", logfileKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", logfileKey, err)
	}

	return SplitLines(string(data)), nil
}

// SplitLines splits raw logfile content into logical lines. The server writes
// \r\n terminators; a lone \n is tolerated for manually edited files.
func SplitLines(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	return strings.Split(data, "\n")
}
